package tsz

// The constructors below are thin, value-kind-specific aliases over
// NewMetric/NewEntityMetric. The original distinguishes metric shapes by
// instantiating a C++ class template on the value type; Go has no
// equivalent compile-time parameter for tsz.Value's tagged union, so the
// same distinction is made by fixing ValueKind and, for counters, the
// Cumulative option at construction time instead.

// NewGauge declares a non-cumulative metric of kind against entity (or
// DefaultEntity() if nil), whose cells are tagged by fieldNames.
func NewGauge(entity *Entity, name string, fieldNames []string, kind ValueKind, options Options) *Metric {
	options.Cumulative = false
	return NewMetric(entity, name, fieldNames, kind, options)
}

// NewCounter declares a cumulative integer metric against entity (or
// DefaultEntity() if nil): spec.md's delta/cumulative semantics apply to
// the single integer cell per field tuple, incremented with AddToInt.
func NewCounter(entity *Entity, name string, fieldNames []string, options Options) *Metric {
	options.Cumulative = true
	return NewMetric(entity, name, fieldNames, ValueIntKind, options)
}

// NewDistributionMetric declares a distribution-valued metric bucketed by
// bucketer (or DefaultBucketer() if nil).
func NewDistributionMetric(entity *Entity, name string, fieldNames []string, bucketer *Bucketer, options Options) *Metric {
	options.Bucketer = bucketer
	return NewMetric(entity, name, fieldNames, ValueDistributionKind, options)
}

// Counter is a cumulative integer Metric, returned by NewCounter. It adds
// Increment/IncrementBy over Metric's AddToInt so call sites read the way
// spec.md §4.I names the counter operations.
type Counter struct{ *Metric }

// NewCounterMetric is NewCounter with the Increment/IncrementBy vocabulary
// attached.
func NewCounterMetric(entity *Entity, name string, fieldNames []string, options Options) Counter {
	return Counter{NewCounter(entity, name, fieldNames, options)}
}

// Increment adds 1 to the counter's cell identified by fieldValues.
func (c Counter) Increment(fieldValues ...FieldValue) { c.AddToInt(1, fieldValues...) }

// IncrementBy adds delta to the counter's cell identified by fieldValues.
func (c Counter) IncrementBy(delta int64, fieldValues ...FieldValue) {
	c.AddToInt(delta, fieldValues...)
}

// EntityCounter is the dynamic-entity analogue of Counter.
type EntityCounter struct{ *EntityMetric }

// NewEntityCounterMetric is NewEntityCounter with the Increment/IncrementBy
// vocabulary attached.
func NewEntityCounterMetric(name string, entityLabelNames, fieldNames []string, options Options) EntityCounter {
	return EntityCounter{NewEntityCounter(name, entityLabelNames, fieldNames, options)}
}

// Increment adds 1 to the counter's cell identified by entityLabelValues
// and fieldValues.
func (c EntityCounter) Increment(entityLabelValues, fieldValues []FieldValue) {
	c.AddToInt(1, entityLabelValues, fieldValues)
}

// IncrementBy adds delta to the counter's cell identified by
// entityLabelValues and fieldValues.
func (c EntityCounter) IncrementBy(delta int64, entityLabelValues, fieldValues []FieldValue) {
	c.AddToInt(delta, entityLabelValues, fieldValues)
}

// NewEntityDistributionMetric is the dynamic-entity analogue of
// NewDistributionMetric.
func NewEntityDistributionMetric(name string, entityLabelNames, fieldNames []string, bucketer *Bucketer, options Options) *EntityMetric {
	options.Bucketer = bucketer
	return NewEntityMetric(name, entityLabelNames, fieldNames, ValueDistributionKind, options)
}

// NewEntityGauge is the dynamic-entity analogue of NewGauge.
func NewEntityGauge(name string, entityLabelNames, fieldNames []string, kind ValueKind, options Options) *EntityMetric {
	options.Cumulative = false
	return NewEntityMetric(name, entityLabelNames, fieldNames, kind, options)
}

// NewEntityCounter is the dynamic-entity analogue of NewCounter.
func NewEntityCounter(name string, entityLabelNames, fieldNames []string, options Options) *EntityMetric {
	options.Cumulative = true
	return NewEntityMetric(name, entityLabelNames, fieldNames, ValueIntKind, options)
}
