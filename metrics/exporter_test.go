package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guileen/respool/pool"
)

type staticFactory struct{}

func (staticFactory) Create(ctx context.Context) (any, error)     { return struct{}{}, nil }
func (staticFactory) Probe(ctx context.Context, handle any) error { return nil }
func (staticFactory) Close(handle any) error                      { return nil }

func TestExporterCollectsAllMetrics(t *testing.T) {
	p := pool.New(pool.Config{
		Name:           "metrics-test",
		MaxConnections: 4,
		MinConnections: 2,
	}, staticFactory{})
	defer p.Destroy()

	exporter := NewExporter(p)
	assert.Equal(t, 11, testutil.CollectAndCount(exporter))
}

func TestExporterReflectsPoolState(t *testing.T) {
	p := pool.New(pool.Config{
		Name:           "metrics-test",
		MaxConnections: 4,
		MinConnections: 2,
	}, staticFactory{})
	defer p.Destroy()

	exporter := NewExporter(p)
	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(exporter))

	res, err := p.Acquire()
	require.NoError(t, err)

	families, err := registry.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if g := m.GetGauge(); g != nil {
				values[mf.GetName()] = g.GetValue()
			}
			if c := m.GetCounter(); c != nil {
				values[mf.GetName()] = c.GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, values["respool_connections_total"])
	assert.Equal(t, 1.0, values["respool_connections_active"])
	assert.Equal(t, 1.0, values["respool_connections_idle"])
	assert.Equal(t, 25.0, values["respool_utilization_percent"])

	p.Release(res)
}
