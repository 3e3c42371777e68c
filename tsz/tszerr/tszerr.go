// Package tszerr defines the failure codes observable at the tsz store's
// boundaries: metric declaration, store lookups and the cell-reader test
// surface. Each constructor returns a gRPC status error, the same way the
// teacher's OTLP handler reports request-level failures. Manifest reading
// and parsing errors in package tsz are plain fmt errors, not built here.
package tszerr

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// InvalidArgument reports a malformed metric name or declaration option.
func InvalidArgument(format string, args ...interface{}) error {
	return status.Error(codes.InvalidArgument, fmt.Sprintf(format, args...))
}

// AlreadyExists reports a conflicting strict redeclaration of a metric name.
func AlreadyExists(format string, args ...interface{}) error {
	return status.Error(codes.AlreadyExists, fmt.Sprintf(format, args...))
}

// NotFound reports a lookup miss (metric name, entity, cell).
func NotFound(format string, args ...interface{}) error {
	return status.Error(codes.NotFound, fmt.Sprintf(format, args...))
}

// FailedPrecondition reports an operation on an uninitialised or empty handle.
func FailedPrecondition(format string, args ...interface{}) error {
	return status.Error(codes.FailedPrecondition, fmt.Sprintf(format, args...))
}

// OutOfMemory builds an allocation-failure error, expressed with
// codes.ResourceExhausted. No tsz code path returns it: the Go runtime
// treats allocation failure as a fatal error rather than reporting it to
// the caller.
func OutOfMemory(format string, args ...interface{}) error {
	return status.Error(codes.ResourceExhausted, fmt.Sprintf(format, args...))
}

// Is reports whether err carries the given gRPC status code.
func Is(err error, code codes.Code) bool {
	return status.Code(err) == code
}
