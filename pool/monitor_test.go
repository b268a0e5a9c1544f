package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorEmptyReport(t *testing.T) {
	factory := &stubFactory{}
	p := New(Config{MaxConnections: 2, MinConnections: 0}, factory)
	defer p.Destroy()

	m := newMonitor(p)
	report := m.Report()
	assert.Zero(t, report.Samples)
	assert.Empty(t, report.Recommendations)
}

func TestMonitorHighUtilizationRecommendation(t *testing.T) {
	factory := &stubFactory{}
	p := New(Config{MaxConnections: 2, MinConnections: 2}, factory)
	defer p.Destroy()

	a, err := p.Acquire()
	require.NoError(t, err)
	b, err := p.Acquire()
	require.NoError(t, err)

	m := newMonitor(p)
	m.Sample()

	report := m.Report()
	assert.Equal(t, 1, report.Samples)
	assert.InDelta(t, 100.0, report.AvgUtilizationPct, 0.001)
	assert.InDelta(t, 100.0, report.PeakUtilizationPct, 0.001)
	require.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[0], "MaxConnections")

	p.Release(a)
	p.Release(b)
}

func TestMonitorSlowAcquisitionAndErrorRecommendations(t *testing.T) {
	factory := &stubFactory{}
	p := New(Config{MaxConnections: 4, MinConnections: 0}, factory)
	defer p.Destroy()

	p.mu.Lock()
	p.avgAcquireMs = 1500
	p.totalQueries = 90
	p.queryErrors = 10
	p.mu.Unlock()

	m := newMonitor(p)
	m.Sample()

	report := m.Report()
	assert.InDelta(t, 1500.0, report.AvgAcquisitionTimeMs, 0.001)
	assert.InDelta(t, 10.0, report.ErrorRatePct, 0.001)

	joined := ""
	for _, rec := range report.Recommendations {
		joined += rec + "\n"
	}
	assert.Contains(t, joined, "acquisition is slow")
	assert.Contains(t, joined, "error rate is elevated")
	assert.NotContains(t, joined, "utilization consistently high")
}

func TestMonitorWindowIsBounded(t *testing.T) {
	factory := &stubFactory{}
	p := New(Config{MaxConnections: 2, MinConnections: 0}, factory)
	defer p.Destroy()

	m := newMonitor(p)
	for i := 0; i < monitorWindow+50; i++ {
		m.Sample()
	}

	window := m.Window()
	assert.Len(t, window, monitorWindow)
	assert.Equal(t, monitorWindow, m.Report().Samples)
}

func TestMonitorBackgroundSampling(t *testing.T) {
	factory := &stubFactory{}
	p := New(Config{
		MaxConnections:  2,
		MinConnections:  1,
		EnableMetrics:   true,
		MonitorInterval: 5 * time.Millisecond,
	}, factory)
	defer p.Destroy()

	m := p.Monitor()
	require.NotNil(t, m)
	waitFor(t, func() bool { return len(m.Window()) >= 2 }, "monitor samples on its own timer")
}
