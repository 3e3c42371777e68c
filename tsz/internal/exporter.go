package internal

import (
	"context"

	"github.com/aaronlmathis/gosight-shared/utils"

	"github.com/aaronlmathis/tsz/tsz/internal/lazy"
	"github.com/aaronlmathis/tsz/tsz/internal/lockfree"
	"github.com/aaronlmathis/tsz/tsz/tszerr"
	"github.com/aaronlmathis/tsz/tsz/tszval"
)

// Exporter is the process-wide registry binding realm names to shards and
// metric names to the single realm each one is allowed to live in (spec.md
// §4.H: "a metric name is globally unique across realms"). It is reached
// through a package-level lazy singleton so the first caller in any
// goroutine pays its construction cost and every later caller observes the
// same instance (spec.md §4.I).
type Exporter struct {
	realmsToShards  *lockfree.Map[*Shard]
	metricsToRealms *lockfree.Map[string]
}

func newExporter() *Exporter {
	return &Exporter{
		realmsToShards:  lockfree.New[*Shard]("exporter.realms_to_shards"),
		metricsToRealms: lockfree.New[string]("exporter.metrics_to_realms"),
	}
}

var exporterSingleton = lazy.New(newExporter)

// GlobalExporter returns the process-wide Exporter, constructing it on
// first use.
func GlobalExporter() *Exporter {
	return exporterSingleton.Get()
}

// GetOrCreateShard returns the shard for realm, creating an empty one on
// first reference.
func (x *Exporter) GetOrCreateShard(realm string) *Shard {
	shard, inserted := x.realmsToShards.GetOrInsert(realm, NewShard())
	if inserted {
		utils.Info("tsz: bootstrapped shard for realm %q", realm)
	}
	return shard
}

// GetShardForMetric returns the shard that owns name, if name has been
// defined in any realm.
func (x *Exporter) GetShardForMetric(name string) (*Shard, bool) {
	realm, ok := x.metricsToRealms.Find(name)
	if !ok {
		return nil, false
	}
	shard, ok := x.realmsToShards.Find(realm)
	return shard, ok
}

// DefineMetric defines name in realm, failing if name is already bound to
// a different realm or to an incompatible configuration within its realm.
func (x *Exporter) DefineMetric(realm, name string, kind tszval.ValueKind, opts tszval.Options) (tszval.MetricConfig, error) {
	boundRealm, err := x.bindMetricToRealm(realm, name)
	if err != nil {
		return tszval.MetricConfig{}, err
	}
	shard := x.GetOrCreateShard(boundRealm)
	return shard.DefineMetric(name, kind, opts)
}

// DefineMetricRedundant is DefineMetric without the cross-redefinition
// error, per spec.md Supplemented Features "Redundant vs strict
// declaration semantics": a second call for the same name is routed to
// whichever realm won the race to define it first, regardless of the realm
// argument passed this time.
func (x *Exporter) DefineMetricRedundant(realm, name string, kind tszval.ValueKind, opts tszval.Options) (tszval.MetricConfig, error) {
	boundRealm, _ := x.metricsToRealms.GetOrInsert(name, realm)
	shard := x.GetOrCreateShard(boundRealm)
	return shard.DefineMetricRedundant(name, kind, opts)
}

func (x *Exporter) bindMetricToRealm(realm, name string) (string, error) {
	boundRealm, inserted := x.metricsToRealms.GetOrInsert(name, realm)
	if !inserted && boundRealm != realm {
		return "", tszerr.AlreadyExists("metric %q is already bound to realm %q, cannot redefine it in realm %q", name, boundRealm, realm)
	}
	return boundRealm, nil
}

// DeleteMetric removes name from every entity of its shard (clearing all
// recorded cells for it) without disturbing the metric's configuration or
// its realm binding: spec.md §3 declares both metric_configs and
// metrics_to_realms append-only for the shard/exporter's lifetime, so a
// Metric holding a cached MetricConfig reference stays valid across a
// DeleteMetric call. Returns the number of entities that had the metric.
func (x *Exporter) DeleteMetric(ctx context.Context, name string) (int, error) {
	shard, ok := x.GetShardForMetric(name)
	if !ok {
		return 0, tszerr.NotFound("metric %q is not defined", name)
	}
	return shard.DeleteMetric(ctx, name)
}
