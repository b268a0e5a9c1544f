package pool

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"timeout substring", errors.New("query timeout exceeded"), true},
		{"uppercase timeout", errors.New("TIMEOUT while reading"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connection refused"), true},
		{"transient not found", errors.New("record not found"), true},
		{"context deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("op: %w", context.DeadlineExceeded), true},
		{"net timeout error", &net.DNSError{Err: "lookup failed", IsTimeout: true}, true},
		{"syntax error", errors.New("syntax error at or near SELECT"), false},
		{"permission denied", errors.New("permission denied for table users"), false},
		{"context canceled", context.Canceled, false},
		{"constraint violation", errors.New("duplicate key value violates unique constraint"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestEMA(t *testing.T) {
	assert.Equal(t, 100.0, ema(0, 100), "first sample seeds the average")
	assert.InDelta(t, 101.0, ema(100, 110), 0.001)
	assert.InDelta(t, 90.0, ema(100, 0), 0.001)
}

func TestStatsComputedFields(t *testing.T) {
	factory := &stubFactory{}
	p := New(Config{MaxConnections: 4, MinConnections: 2}, factory)
	defer p.Destroy()

	res, err := p.Acquire()
	assert.NoError(t, err)

	stats := p.Stats()
	assert.InDelta(t, 25.0, stats.UtilizationPct, 0.001, "1 of 4 acquired")
	assert.Equal(t, "default", stats.Name)

	p.mu.Lock()
	p.totalQueries = 90
	p.queryErrors = 10
	p.mu.Unlock()

	stats = p.Stats()
	assert.InDelta(t, 10.0, stats.ErrorRatePct, 0.001)

	p.Release(res)
}
