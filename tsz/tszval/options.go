package tszval

import "time"

// Options configures a metric declaration. The zero value declares a
// non-cumulative metric in the default realm with no description and no
// staleness bounds.
type Options struct {
	// Description is human-readable and opaque to the store.
	Description string `yaml:"description,omitempty"`

	// Cumulative, when true, makes ResetIfCumulative zero every cell's
	// value at the reset timestamp.
	Cumulative bool `yaml:"cumulative,omitempty"`

	// SkipStableCells is a backend hint, ignored unless backends report a
	// common sampling period. See spec.md's Open Questions: the exact
	// detection rule for "common sampling period" is left to the backend
	// and is out of scope for this store.
	SkipStableCells bool `yaml:"skip_stable_cells,omitempty"`

	// DeltaMode is a backend hint with the same caveat as SkipStableCells.
	DeltaMode bool `yaml:"delta_mode,omitempty"`

	// UserTimestamps, when true, means the caller supplies "now" on every
	// write; otherwise the runtime clock is used.
	UserTimestamps bool `yaml:"user_timestamps,omitempty"`

	// Bucketer is required for distribution (event) metrics and ignored
	// for every other value kind.
	Bucketer *Bucketer `yaml:"-"`

	// MaxEntityStaleness optionally bounds how long an idle entity may
	// stay before it becomes eligible for reaping. This is an operator
	// concern, not load-bearing for correctness: the store enforces no
	// reaping here, it merely carries the configured duration for callers
	// that choose to police staleness externally.
	MaxEntityStaleness time.Duration `yaml:"max_entity_staleness,omitempty"`

	// MaxValueStaleness is the cell-level analogue of MaxEntityStaleness.
	MaxValueStaleness time.Duration `yaml:"max_value_staleness,omitempty"`

	// Realm is the routing key from metric name to shard. Empty means the
	// default realm.
	Realm string `yaml:"realm,omitempty"`
}

// MetricConfig is the immutable, installed form of an Options declaration,
// fixed at DefineMetric time and never mutated afterwards. ValueKind is
// resolved from the metric's Go wrapper type at declaration time (spec.md
// §3: "Each metric fixes its value variant at declaration time").
type MetricConfig struct {
	ValueKind          ValueKind
	Description        string
	Cumulative         bool
	SkipStableCells    bool
	DeltaMode          bool
	UserTimestamps     bool
	Bucketer           *Bucketer
	MaxEntityStaleness time.Duration
	MaxValueStaleness  time.Duration
	Realm              string
}

// NewMetricConfig builds a MetricConfig for a metric of the given value
// kind from a declaration's Options.
func NewMetricConfig(kind ValueKind, opts Options) MetricConfig {
	bucketer := opts.Bucketer
	if kind == ValueDistribution && bucketer == nil {
		bucketer = DefaultBucketer()
	}
	return MetricConfig{
		ValueKind:          kind,
		Description:        opts.Description,
		Cumulative:         opts.Cumulative,
		SkipStableCells:    opts.SkipStableCells,
		DeltaMode:          opts.DeltaMode,
		UserTimestamps:     opts.UserTimestamps,
		Bucketer:           bucketer,
		MaxEntityStaleness: opts.MaxEntityStaleness,
		MaxValueStaleness:  opts.MaxValueStaleness,
		Realm:              opts.Realm,
	}
}

// Equal reports whether c and other describe the same declaration. Used by
// the strict declaration path to reject an incompatible re-declaration of
// an existing metric name, and by the redundant path to warn about one.
func (c MetricConfig) Equal(other MetricConfig) bool {
	if c.ValueKind != other.ValueKind ||
		c.Description != other.Description ||
		c.Cumulative != other.Cumulative ||
		c.SkipStableCells != other.SkipStableCells ||
		c.DeltaMode != other.DeltaMode ||
		c.UserTimestamps != other.UserTimestamps ||
		c.MaxEntityStaleness != other.MaxEntityStaleness ||
		c.MaxValueStaleness != other.MaxValueStaleness ||
		c.Realm != other.Realm {
		return false
	}
	if (c.Bucketer == nil) != (other.Bucketer == nil) {
		return false
	}
	if c.Bucketer != nil && !c.Bucketer.Equal(other.Bucketer) {
		return false
	}
	return true
}

// ZeroValue returns the zero Value for c's declared variant (a cleared
// distribution with c's bucketer for distribution metrics). Cell.Reset
// does not use it; it zeroes through Value.ZeroOf instead.
func (c MetricConfig) ZeroValue() Value {
	switch c.ValueKind {
	case ValueBool:
		return BoolValue(false)
	case ValueInt:
		return IntValue(0)
	case ValueDouble:
		return DoubleValue(0)
	case ValueString:
		return StringValue("")
	default:
		return DistributionValue(c.Bucketer)
	}
}
