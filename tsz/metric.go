package tsz

import (
	"context"
	"time"

	"github.com/aaronlmathis/gosight-shared/utils"

	"github.com/aaronlmathis/tsz/tsz/internal"
	"github.com/aaronlmathis/tsz/tsz/internal/lazy"
	"github.com/aaronlmathis/tsz/tsz/internal/ratelimit"
	"github.com/aaronlmathis/tsz/tsz/tszerr"
)

const defaultRealm = "default"

// dropWarnings throttles the "write dropped, metric never defined" log line
// to at most one per metric name per window, the tsz analogue of the
// teacher's guardrail around noisy ingestion-path logging.
var dropWarnings = ratelimit.New(10 * time.Second)

func warnDropped(name string) {
	if dropWarnings.Allow(name, time.Now()) {
		utils.Warn("tsz: dropping write to metric %q, its definition failed", name)
	}
}

func failedToDefineErr(name string) error {
	return tszerr.FailedPrecondition("failed to define metric %q in the tsz exporter", name)
}

// Metric is a metric bound to a single, fixed Entity (spec.md §4.G, the
// "with metric fields only ... referring to a specific entity" form in the
// original's docs). Definition with the exporter and the first lookup of
// its backing store object are deferred to first use and cached for the
// lifetime of the Metric, mirroring the original's Lazy<ScopedMetricProxy>:
// a Metric declared as a long-lived package variable pays that cost once.
type Metric struct {
	entity     *Entity
	name       string
	fieldNames []string
	kind       ValueKind
	options    Options

	proxy *lazy.Cell[*internal.Metric]
}

// NewMetric declares a metric named name against entity (or DefaultEntity()
// if entity is nil), whose recorded values are tagged by fieldNames.
func NewMetric(entity *Entity, name string, fieldNames []string, kind ValueKind, options Options) *Metric {
	if entity == nil {
		entity = DefaultEntity()
	}
	m := &Metric{entity: entity, name: name, fieldNames: fieldNames, kind: kind, options: options}
	m.proxy = lazy.New(m.define)
	return m
}

func (m *Metric) define() *internal.Metric {
	exporter := internal.GlobalExporter()
	realm := m.options.Realm
	if realm == "" {
		realm = defaultRealm
	}
	config, err := exporter.DefineMetricRedundant(realm, m.name, m.kind, m.options)
	if err != nil {
		// DefineMetricRedundant fails only for a name that does not
		// satisfy the metric-name grammar; a config clash is impossible
		// under the Redundant variant. Surfacing a panic would be worse
		// than degrading to a metric nobody can record against, so the
		// zero internal.Metric (nil) is returned and every subsequent
		// call becomes a silent no-op, matching the original's
		// LOG(ERROR)-and-return-null-proxy behavior in BaseMetric::DefineMetric.
		return nil
	}
	shard, _ := exporter.GetShardForMetric(m.name)
	entity := shard.GetOrCreateEntity(m.entity.fields, m.entity.view)
	metric := entity.GetOrCreateMetric(m.name, config)
	metric.Pin()
	return metric
}

// Name returns the metric's name.
func (m *Metric) Name() string { return m.name }

// LastUpdateTime returns the timestamp of the most recent SetValue, AddToInt,
// or RecordDistribution call against any cell of this metric, or the zero
// Time if it has never been written to or could not be defined.
func (m *Metric) LastUpdateTime() time.Time {
	metric := m.proxy.Get()
	if metric == nil {
		return time.Time{}
	}
	return metric.LastUpdateTime()
}

func (m *Metric) fields(values []FieldValue) FieldMap {
	return NewFieldMap(m.fieldNames, values)
}

// SetValue records value for the cell identified by fieldValues.
func (m *Metric) SetValue(value Value, fieldValues ...FieldValue) {
	metric := m.proxy.Get()
	if metric == nil {
		warnDropped(m.name)
		return
	}
	ctx := internal.NewThrowAwayMetricContext(metric, time.Now())
	metric.SetValue(ctx, m.fields(fieldValues), value)
}

// AddToInt adds delta to the integer cell identified by fieldValues,
// creating it at delta if absent.
func (m *Metric) AddToInt(delta int64, fieldValues ...FieldValue) {
	metric := m.proxy.Get()
	if metric == nil {
		warnDropped(m.name)
		return
	}
	ctx := internal.NewThrowAwayMetricContext(metric, time.Now())
	metric.AddToInt(ctx, m.fields(fieldValues), delta)
}

// RecordDistribution records sample once into the distribution cell
// identified by fieldValues.
func (m *Metric) RecordDistribution(sample float64, fieldValues ...FieldValue) {
	m.RecordDistributionMany(sample, 1, fieldValues...)
}

// RecordDistributionMany records sample times times into the distribution
// cell identified by fieldValues.
func (m *Metric) RecordDistributionMany(sample float64, times uint64, fieldValues ...FieldValue) {
	metric := m.proxy.Get()
	if metric == nil {
		warnDropped(m.name)
		return
	}
	ctx := internal.NewThrowAwayMetricContext(metric, time.Now())
	metric.AddToDistribution(ctx, m.fields(fieldValues), sample, times)
}

// GetValue returns the value recorded for fieldValues, or an error
// (tszerr.NotFound, or tszerr.FailedPrecondition if the metric could not
// be defined) if none exists.
func (m *Metric) GetValue(fieldValues ...FieldValue) (Value, error) {
	metric := m.proxy.Get()
	if metric == nil {
		return Value{}, failedToDefineErr(m.name)
	}
	return metric.GetValue(m.fields(fieldValues))
}

// Delete removes the cell identified by fieldValues, returning whether one
// existed.
func (m *Metric) Delete(fieldValues ...FieldValue) bool {
	metric := m.proxy.Get()
	if metric == nil {
		return false
	}
	ctx := internal.NewThrowAwayMetricContext(metric, time.Now())
	return metric.DeleteValue(ctx, m.fields(fieldValues))
}

// Clear removes every cell recorded for this metric.
func (m *Metric) Clear() bool {
	metric := m.proxy.Get()
	if metric == nil {
		return false
	}
	ctx := internal.NewThrowAwayMetricContext(metric, time.Now())
	return metric.Clear(ctx)
}

// EntityMetric is a metric whose entity varies per call (spec.md §4.G, the
// original's EntityLabels<...>-parameterized BaseMetric specialization):
// rather than caching one pinned internal.Metric, it caches the Shard the
// metric name resolves to and looks up (creating if absent, for writes) the
// entity and metric on every call.
type EntityMetric struct {
	name             string
	entityLabelNames []string
	fieldNames       []string
	kind             ValueKind
	options          Options

	shard *lazy.Cell[*internal.Shard]
}

// NewEntityMetric declares a metric named name whose entity is identified,
// at each call, by values matched positionally against entityLabelNames,
// and whose cells are tagged by fieldNames.
func NewEntityMetric(name string, entityLabelNames, fieldNames []string, kind ValueKind, options Options) *EntityMetric {
	m := &EntityMetric{name: name, entityLabelNames: entityLabelNames, fieldNames: fieldNames, kind: kind, options: options}
	m.shard = lazy.New(m.define)
	return m
}

func (m *EntityMetric) define() *internal.Shard {
	exporter := internal.GlobalExporter()
	realm := m.options.Realm
	if realm == "" {
		realm = defaultRealm
	}
	if _, err := exporter.DefineMetricRedundant(realm, m.name, m.kind, m.options); err != nil {
		return nil
	}
	shard, _ := exporter.GetShardForMetric(m.name)
	return shard
}

// Name returns the metric's name.
func (m *EntityMetric) Name() string { return m.name }

func (m *EntityMetric) entityFields(values []FieldValue) (FieldMap, FieldMapView) {
	fields := NewFieldMap(m.entityLabelNames, values)
	return fields, NewFieldMapView(&fields)
}

func (m *EntityMetric) metricFields(values []FieldValue) FieldMap {
	return NewFieldMap(m.fieldNames, values)
}

// SetValue records value for the entity identified by entityLabelValues and
// the cell identified by fieldValues, creating either as needed.
func (m *EntityMetric) SetValue(value Value, entityLabelValues, fieldValues []FieldValue) {
	shard := m.shard.Get()
	if shard == nil {
		warnDropped(m.name)
		return
	}
	config, ok := shard.MetricConfig(m.name)
	if !ok {
		return
	}
	entityFields, entityView := m.entityFields(entityLabelValues)
	shard.SetValue(entityFields, entityView, m.name, config, m.metricFields(fieldValues), value, time.Now())
}

// AddToInt adds delta to the integer cell identified by entityLabelValues
// and fieldValues, creating either the entity or the cell as needed. This
// is how a counter declared with NewEntityCounter is incremented.
func (m *EntityMetric) AddToInt(delta int64, entityLabelValues, fieldValues []FieldValue) {
	shard := m.shard.Get()
	if shard == nil {
		warnDropped(m.name)
		return
	}
	config, ok := shard.MetricConfig(m.name)
	if !ok {
		return
	}
	entityFields, entityView := m.entityFields(entityLabelValues)
	shard.AddToInt(entityFields, entityView, m.name, config, m.metricFields(fieldValues), delta, time.Now())
}

// RecordDistribution records sample once into the distribution cell
// identified by entityLabelValues and fieldValues.
func (m *EntityMetric) RecordDistribution(sample float64, entityLabelValues, fieldValues []FieldValue) {
	m.RecordDistributionMany(sample, 1, entityLabelValues, fieldValues)
}

// RecordDistributionMany records sample times times into the distribution
// cell identified by entityLabelValues and fieldValues.
func (m *EntityMetric) RecordDistributionMany(sample float64, times uint64, entityLabelValues, fieldValues []FieldValue) {
	shard := m.shard.Get()
	if shard == nil {
		warnDropped(m.name)
		return
	}
	config, ok := shard.MetricConfig(m.name)
	if !ok {
		return
	}
	entityFields, entityView := m.entityFields(entityLabelValues)
	shard.AddToDistribution(entityFields, entityView, m.name, config, m.metricFields(fieldValues), sample, times, time.Now())
}

// GetValue returns the value recorded for the given entity and fields.
func (m *EntityMetric) GetValue(entityLabelValues, fieldValues []FieldValue) (Value, error) {
	shard := m.shard.Get()
	if shard == nil {
		return Value{}, failedToDefineErr(m.name)
	}
	_, entityView := m.entityFields(entityLabelValues)
	return shard.GetValue(entityView, m.name, m.metricFields(fieldValues))
}

// Delete removes the cell recorded for the given entity and fields,
// returning whether one existed.
func (m *EntityMetric) Delete(entityLabelValues, fieldValues []FieldValue) bool {
	shard := m.shard.Get()
	if shard == nil {
		return false
	}
	_, entityView := m.entityFields(entityLabelValues)
	return shard.DeleteValue(entityView, m.name, m.metricFields(fieldValues), time.Now())
}

// DeleteEntity removes every cell this metric recorded for the given
// entity.
func (m *EntityMetric) DeleteEntity(entityLabelValues []FieldValue) bool {
	shard := m.shard.Get()
	if shard == nil {
		return false
	}
	_, entityView := m.entityFields(entityLabelValues)
	return shard.DeleteEntityMetric(entityView, m.name)
}

// Clear removes every cell this metric recorded across every entity on its
// shard.
func (m *EntityMetric) Clear(ctx context.Context) (int, error) {
	shard := m.shard.Get()
	if shard == nil {
		return 0, failedToDefineErr(m.name)
	}
	return shard.DeleteMetric(ctx, m.name)
}
