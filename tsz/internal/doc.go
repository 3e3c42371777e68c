// Package internal implements the tsz store: cells, metrics, entities,
// shards and the exporter registry that ties metric names to shards. It
// mirrors tsz/internal/*.h from the original implementation — Cell,
// Metric, Entity, Shard, Exporter and the scoped/throw-away metric
// contexts that pin them across lock-release boundaries — translated into
// Go's ownership idiom: every object is owned by its parent's hash index
// and borrowed by a context that holds a plain pointer plus a pin-count
// guard, never a reference-counted smart pointer.
package internal
