package tszval

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOptionsYAMLUnmarshal(t *testing.T) {
	raw := []byte(`
description: request latency
cumulative: true
realm: ingest
max_entity_staleness: 300000000000
`)
	var opts Options
	require.NoError(t, yaml.Unmarshal(raw, &opts))
	require.Equal(t, "request latency", opts.Description)
	require.True(t, opts.Cumulative)
	require.Equal(t, "ingest", opts.Realm)
	require.Equal(t, 5*60*1e9, float64(opts.MaxEntityStaleness))
}

func TestMetricConfigEqualIgnoresBucketerIdentityNotValue(t *testing.T) {
	a := NewMetricConfig(ValueDistribution, Options{Bucketer: CustomBucketer(1, 2, 3)})
	b := NewMetricConfig(ValueDistribution, Options{Bucketer: CustomBucketer(1, 2, 3)})
	require.True(t, a.Equal(b))

	c := NewMetricConfig(ValueDistribution, Options{Bucketer: CustomBucketer(1, 2, 4)})
	require.False(t, a.Equal(c))
}

func TestMetricConfigDefaultsBucketerForDistribution(t *testing.T) {
	cfg := NewMetricConfig(ValueDistribution, Options{})
	require.NotNil(t, cfg.Bucketer)
	require.True(t, cfg.Bucketer.Equal(DefaultBucketer()))
}

func TestMetricConfigZeroValueMatchesKind(t *testing.T) {
	cfg := NewMetricConfig(ValueInt, Options{})
	v := cfg.ZeroValue()
	i, ok := v.Int()
	require.True(t, ok)
	require.Equal(t, int64(0), i)
}
