package internal

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/aaronlmathis/gosight-shared/utils"
	"golang.org/x/sync/errgroup"

	"github.com/aaronlmathis/tsz/tsz/internal/lockfree"
	"github.com/aaronlmathis/tsz/tsz/tszerr"
	"github.com/aaronlmathis/tsz/tsz/tszval"
)

// metricNameGrammar matches a metric name made of one or more
// "/segment" components, each segment restricted to letters, digits,
// '.', '_' and '-'.
var metricNameGrammar = regexp.MustCompile(`^(/[A-Za-z0-9._-]+)+$`)

// ValidateMetricName reports whether name conforms to the metric-name
// grammar (spec.md §4.G).
func ValidateMetricName(name string) bool {
	return metricNameGrammar.MatchString(name)
}

// Shard owns a set of entities and the metric-name -> MetricConfig
// registry that every entity on the shard shares. metricConfigs is the
// one place besides the exporter's own registries that genuinely needs
// the lock-free container: Find is on nearly every write-path call
// (SetValue/AddToInt/...) and must never block behind a writer defining
// an unrelated metric.
type Shard struct {
	mu       sync.RWMutex
	entities hashIndex[*Entity]

	metricConfigs *lockfree.Map[tszval.MetricConfig]
}

// NewShard returns an empty shard.
func NewShard() *Shard {
	return &Shard{entities: newHashIndex[*Entity](), metricConfigs: lockfree.New[tszval.MetricConfig]("shard.metric_configs")}
}

// DefineMetric registers name with the given kind and options. It is an
// error to redefine an existing name with a different configuration
// (spec.md §4.G "Definition is append-only and idempotent for identical
// redefinitions").
func (s *Shard) DefineMetric(name string, kind tszval.ValueKind, opts tszval.Options) (tszval.MetricConfig, error) {
	if !ValidateMetricName(name) {
		return tszval.MetricConfig{}, tszerr.InvalidArgument("metric name %q does not match the required grammar", name)
	}
	config := tszval.NewMetricConfig(kind, opts)
	existing, inserted := s.metricConfigs.GetOrInsert(name, config)
	if inserted {
		return config, nil
	}
	if !existing.Equal(config) {
		return tszval.MetricConfig{}, tszerr.AlreadyExists("metric %q already defined with an incompatible configuration", name)
	}
	return existing, nil
}

// DefineMetricRedundant is DefineMetric without the incompatible-redefinition
// error: a second declaration with a different configuration logs a warning
// and keeps whichever configuration won the race to define the name first
// (spec.md Supplemented Features "Redundant vs strict declaration semantics").
func (s *Shard) DefineMetricRedundant(name string, kind tszval.ValueKind, opts tszval.Options) (tszval.MetricConfig, error) {
	if !ValidateMetricName(name) {
		return tszval.MetricConfig{}, tszerr.InvalidArgument("metric name %q does not match the required grammar", name)
	}
	config := tszval.NewMetricConfig(kind, opts)
	existing, inserted := s.metricConfigs.GetOrInsert(name, config)
	if !inserted && !existing.Equal(config) {
		utils.Warn("tsz: metric %q redeclared with a different configuration; keeping the first one", name)
	}
	return existing, nil
}

// MetricConfig returns the registered configuration for name, if any.
func (s *Shard) MetricConfig(name string) (tszval.MetricConfig, bool) {
	return s.metricConfigs.Find(name)
}

// GetOrCreateEntity returns the existing entity for fields, or creates
// one. It does not pin the entity; pinning is the caller's job, typically
// done by wrapping the returned entity in a ScopedEntityContext or
// ThrowAwayEntityContext. view must be NewFieldMapView of the same fields
// passed in, computed once by the caller.
func (s *Shard) GetOrCreateEntity(fields tszval.FieldMap, view tszval.FieldMapView) *Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	entity, ok := s.entities.Find(view.Hash(), func(e *Entity) bool { return view.Equal(*e.Fields()) })
	if !ok {
		entity = NewEntity(s, fields, view.Hash())
		s.entities.Insert(view.Hash(), entity)
	}
	return entity
}

// GetEntity returns the existing entity for fields without creating one,
// meant for ephemeral, non-mutating reads (spec.md Supplemented Features
// "GetEphemeralEntity").
func (s *Shard) GetEntity(view tszval.FieldMapView) (*Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities.Find(view.Hash(), func(e *Entity) bool { return view.Equal(*e.Fields()) })
}

// DeleteEntityInternal implements EntityManager: called by an Entity that
// has just become empty and unpinned, asking this shard to drop it.
func (s *Shard) DeleteEntityInternal(fields tszval.FieldMap) {
	view := tszval.NewFieldMapView(&fields)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities.Delete(view.Hash(), func(e *Entity) bool { return view.Equal(*e.Fields()) })
}

// EntityCount returns the number of entities currently tracked.
func (s *Shard) EntityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities.Len()
}

// DeleteMetric removes the metric named name from every entity on the
// shard concurrently (spec.md §4.G: a cross-entity scan is the one shard
// operation expensive enough to warrant fanning out). A single scan can
// miss an entity created concurrently by a writer mid-sweep, so the sweep
// re-scans the entity set pass after pass until a pass removes nothing
// (spec.md §4.G: "tolerating concurrent modification by iterating until a
// pass reports no removals"). Returns the total number of entities that
// had the metric across every pass.
func (s *Shard) DeleteMetric(ctx context.Context, name string) (int, error) {
	total := 0
	for {
		s.mu.RLock()
		entities := s.entities.Values()
		s.mu.RUnlock()

		var mu sync.Mutex
		removedThisPass := 0
		g, _ := errgroup.WithContext(ctx)
		for _, e := range entities {
			e := e
			g.Go(func() error {
				if e.DeleteMetric(name) {
					mu.Lock()
					removedThisPass++
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return total, err
		}
		if removedThisPass == 0 {
			return total, nil
		}
		total += removedThisPass
	}
}

// ForEachEntity calls fn for every entity currently tracked, in
// unspecified order, while holding the shard's read lock.
func (s *Shard) ForEachEntity(fn func(*Entity)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.entities.ForEach(fn)
}

// SetValue is the one-shot form used by a dynamic-entity metric handle
// (spec.md §4.G, mirroring the original's Shard::SetValue): it creates the
// entity and metric for entityFields/name if they don't exist yet, pins
// both just long enough to perform the write, and unpins immediately.
func (s *Shard) SetValue(entityFields tszval.FieldMap, entityView tszval.FieldMapView, name string, config tszval.MetricConfig, fields tszval.FieldMap, value tszval.Value, now time.Time) {
	entity := s.GetOrCreateEntity(entityFields, entityView)
	ec := NewThrowAwayEntityContext(entity)
	defer ec.Release()
	metric := entity.GetOrCreateMetric(name, config)
	mc := NewThrowAwayMetricContext(metric, now)
	metric.SetValue(mc, fields, value)
}

// AddToInt is the one-shot accumulate form used by a dynamic-entity
// counter: it creates the entity and metric if absent and adds delta to
// the integer cell for fields, same lifetime shape as SetValue.
func (s *Shard) AddToInt(entityFields tszval.FieldMap, entityView tszval.FieldMapView, name string, config tszval.MetricConfig, fields tszval.FieldMap, delta int64, now time.Time) {
	entity := s.GetOrCreateEntity(entityFields, entityView)
	ec := NewThrowAwayEntityContext(entity)
	defer ec.Release()
	metric := entity.GetOrCreateMetric(name, config)
	mc := NewThrowAwayMetricContext(metric, now)
	metric.AddToInt(mc, fields, delta)
}

// AddToDistribution is the one-shot record form used by a dynamic-entity
// event metric: it creates the entity and metric if absent and records
// sample, times times, into the distribution cell for fields.
func (s *Shard) AddToDistribution(entityFields tszval.FieldMap, entityView tszval.FieldMapView, name string, config tszval.MetricConfig, fields tszval.FieldMap, sample float64, times uint64, now time.Time) {
	entity := s.GetOrCreateEntity(entityFields, entityView)
	ec := NewThrowAwayEntityContext(entity)
	defer ec.Release()
	metric := entity.GetOrCreateMetric(name, config)
	mc := NewThrowAwayMetricContext(metric, now)
	metric.AddToDistribution(mc, fields, sample, times)
}

// GetValue is the one-shot read form: it returns NotFound if the entity or
// the metric does not exist, and otherwise the current value for fields.
func (s *Shard) GetValue(entityView tszval.FieldMapView, name string, fields tszval.FieldMap) (tszval.Value, error) {
	entity, ok := s.GetEntity(entityView)
	if !ok {
		return tszval.Value{}, tszerr.NotFound("no entity recorded with the given labels")
	}
	metric, ok := entity.GetMetric(name)
	if !ok {
		return tszval.Value{}, tszerr.NotFound("metric %q not recorded for the given entity", name)
	}
	return metric.GetValue(fields)
}

// DeleteValue is the one-shot delete form: it removes the cell for fields
// from the (entity, name) metric, if both exist, returning whether a cell
// was removed.
func (s *Shard) DeleteValue(entityView tszval.FieldMapView, name string, fields tszval.FieldMap, now time.Time) bool {
	entity, ok := s.GetEntity(entityView)
	if !ok {
		return false
	}
	metric, ok := entity.GetMetric(name)
	if !ok {
		return false
	}
	ec := NewThrowAwayEntityContext(entity)
	defer ec.Release()
	mc := NewThrowAwayMetricContext(metric, now)
	return metric.DeleteValue(mc, fields)
}

// DeleteEntityMetric removes metric name entirely from one entity,
// returning whether it existed.
func (s *Shard) DeleteEntityMetric(entityView tszval.FieldMapView, name string) bool {
	entity, ok := s.GetEntity(entityView)
	if !ok {
		return false
	}
	return entity.DeleteMetric(name)
}
