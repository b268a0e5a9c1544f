package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Health cycles are driven directly in these tests instead of waiting on the
// background ticker, so EnableHealthCheck stays off.

func TestHealthCycleEvictsStaleAndReplenishes(t *testing.T) {
	factory := &stubFactory{}
	p := New(Config{
		MaxConnections: 3,
		MinConnections: 1,
		IdleTimeout:    40 * time.Millisecond,
	}, factory)
	defer p.Destroy()

	details := p.ConnectionDetails()
	require.Len(t, details, 1)
	originalID := details[0].ID

	time.Sleep(60 * time.Millisecond)
	p.runHealthCycle(context.Background())

	details = p.ConnectionDetails()
	require.Len(t, details, 1, "eviction below minimum must be replenished within the cycle")
	assert.NotEqual(t, originalID, details[0].ID)

	stats := p.Stats()
	assert.EqualValues(t, 1, stats.Evictions)
	_, closed := factory.counts()
	assert.Equal(t, 1, closed)
}

func TestProbeFailureDecaysScoreAndEvicts(t *testing.T) {
	factory := &stubFactory{probeErr: errors.New("probe refused")}
	p := New(Config{
		MaxConnections: 2,
		MinConnections: 0,
		IdleTimeout:    time.Hour,
	}, factory)
	defer p.Destroy()

	res, err := p.Acquire()
	require.NoError(t, err)
	id := res.ID()
	p.Release(res)

	// 100 -> 80 -> 60 -> 40: decayed but above the eviction threshold
	for i, want := range []int{80, 60, 40} {
		p.runHealthCycle(context.Background())
		details := p.ConnectionDetails()
		require.Len(t, details, 1, "cycle %d", i+1)
		assert.Equal(t, want, details[0].HealthScore)
	}

	// 40 -> 20: below threshold, evicted; min 0 means no replacement
	p.runHealthCycle(context.Background())
	assert.Empty(t, p.ConnectionDetails())
	assert.EqualValues(t, 1, p.Stats().Evictions)

	_, closed := factory.counts()
	assert.Equal(t, 1, closed, "evicted resource must be closed, id %s", id)
}

func TestProbeSuccessRecoversScore(t *testing.T) {
	factory := &stubFactory{}
	p := New(Config{
		MaxConnections: 2,
		MinConnections: 1,
		IdleTimeout:    time.Hour,
	}, factory)
	defer p.Destroy()

	p.mu.Lock()
	for _, res := range p.resources {
		res.healthScore = 50
	}
	p.mu.Unlock()

	p.runHealthCycle(context.Background())
	assert.Equal(t, 55, p.ConnectionDetails()[0].HealthScore)

	// Recovery is capped at 100
	p.mu.Lock()
	for _, res := range p.resources {
		res.healthScore = 98
	}
	p.mu.Unlock()

	p.runHealthCycle(context.Background())
	assert.Equal(t, 100, p.ConnectionDetails()[0].HealthScore)
}

func TestAcquireSkipsUnhealthyIdleResource(t *testing.T) {
	factory := &stubFactory{}
	p := New(Config{
		MaxConnections: 2,
		MinConnections: 1,
		IdleTimeout:    time.Hour,
	}, factory)
	defer p.Destroy()

	var unhealthyID string
	p.mu.Lock()
	for _, res := range p.resources {
		res.healthScore = 10
		unhealthyID = res.id
	}
	p.mu.Unlock()

	res, err := p.Acquire()
	require.NoError(t, err)
	assert.NotEqual(t, unhealthyID, res.ID(), "a condemned resource must never be lent out")

	created, _ := factory.counts()
	assert.Equal(t, 2, created)
	p.Release(res)
}

func TestHealthCycleNeverTouchesAcquiredResources(t *testing.T) {
	factory := &stubFactory{probeErr: errors.New("probe timeout")}
	p := New(Config{
		MaxConnections: 1,
		MinConnections: 1,
		IdleTimeout:    30 * time.Millisecond,
	}, factory)
	defer p.Destroy()

	res, err := p.Acquire()
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	p.runHealthCycle(context.Background())

	details := p.ConnectionDetails()
	require.Len(t, details, 1, "an acquired resource must survive age-out")
	assert.Equal(t, res.ID(), details[0].ID)
	assert.Equal(t, "acquired", details[0].State)
	assert.Equal(t, 100, details[0].HealthScore, "acquired resources are not probed")

	p.Release(res)
}

func TestHealthCycleToleratesReplenishFailures(t *testing.T) {
	factory := &stubFactory{}
	p := New(Config{
		MaxConnections: 3,
		MinConnections: 2,
		IdleTimeout:    20 * time.Millisecond,
	}, factory)
	defer p.Destroy()

	// Every create from here on fails
	factory.mu.Lock()
	factory.failCreates = 1000
	factory.mu.Unlock()

	time.Sleep(40 * time.Millisecond)
	p.runHealthCycle(context.Background())

	stats := p.Stats()
	assert.Equal(t, 0, stats.TotalConnections)
	assert.NotZero(t, stats.CreateErrors)

	// Factory recovers; the next cycle restores the minimum
	factory.mu.Lock()
	factory.failCreates = 0
	factory.mu.Unlock()

	p.runHealthCycle(context.Background())
	assert.Equal(t, 2, p.Stats().TotalConnections)
}

func TestBackgroundHealthLoopRuns(t *testing.T) {
	factory := &stubFactory{}
	p := New(Config{
		MaxConnections:      2,
		MinConnections:      1,
		IdleTimeout:         time.Hour,
		HealthCheckInterval: 10 * time.Millisecond,
		EnableHealthCheck:   true,
	}, factory)
	defer p.Destroy()

	waitFor(t, func() bool {
		factory.mu.Lock()
		defer factory.mu.Unlock()
		return factory.probes > 0
	}, "background health checker probes idle resources")
}
