package pool

import (
	"sort"
	"time"
)

// emaAlpha is the smoothing factor for the exponential moving averages of
// query response time and acquisition latency.
const emaAlpha = 0.1

// ema folds a new sample into an exponential moving average. The first sample
// seeds the average directly.
func ema(current, sample float64) float64 {
	if current == 0 {
		return sample
	}
	return current*(1-emaAlpha) + sample*emaAlpha
}

// Stats is a synchronous, race-free snapshot of the pool's state and lifetime
// counters. All fields are computed under the pool mutex in a single pass.
type Stats struct {
	Name                string  `json:"name"`
	TotalConnections    int     `json:"total_connections"`
	ActiveConnections   int     `json:"active_connections"`
	IdleConnections     int     `json:"idle_connections"`
	PendingAcquisitions int     `json:"pending_acquisitions"`
	TotalQueries        uint64  `json:"total_queries"`
	QueryErrors         uint64  `json:"query_errors"`
	CreateErrors        uint64  `json:"create_errors"`
	Evictions           uint64  `json:"evictions"`
	AcquireTimeouts     uint64  `json:"acquire_timeouts"`
	AvgResponseTimeMs   float64 `json:"avg_response_time_ms"`
	AcquisitionTimeMs   float64 `json:"acquisition_time_ms"`
	ErrorRatePct        float64 `json:"error_rate_percent"`
	UtilizationPct      float64 `json:"utilization_percent"`
}

// Stats returns a snapshot of the pool's current state.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statsLocked()
}

func (p *Pool) statsLocked() Stats {
	active, idle := 0, 0
	for _, res := range p.resources {
		if res.state == StateAcquired {
			active++
		} else {
			idle++
		}
	}

	utilization := float64(active) / float64(p.config.MaxConnections) * 100

	errorRate := 0.0
	if ops := p.totalQueries + p.queryErrors; ops > 0 {
		errorRate = float64(p.queryErrors) / float64(ops) * 100
	}

	return Stats{
		Name:                p.config.Name,
		TotalConnections:    len(p.resources),
		ActiveConnections:   active,
		IdleConnections:     idle,
		PendingAcquisitions: p.waiters.Len(),
		TotalQueries:        p.totalQueries,
		QueryErrors:         p.queryErrors,
		CreateErrors:        p.createErrors,
		Evictions:           p.evictions,
		AcquireTimeouts:     p.acquireTimeouts,
		AvgResponseTimeMs:   p.avgResponseMs,
		AcquisitionTimeMs:   p.avgAcquireMs,
		ErrorRatePct:        errorRate,
		UtilizationPct:      utilization,
	}
}

// ConnectionDetails returns a per-resource view for diagnostics and admin
// tooling, sorted oldest first. After Destroy it returns an empty list.
func (p *Pool) ConnectionDetails() []ResourceDetail {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	details := make([]ResourceDetail, 0, len(p.resources))
	for _, res := range p.resources {
		details = append(details, ResourceDetail{
			ID:          res.id,
			State:       res.state.String(),
			AgeSeconds:  now.Sub(res.createdAt).Seconds(),
			IdleSeconds: now.Sub(res.lastUsedAt).Seconds(),
			QueryCount:  res.queryCount,
			ErrorCount:  res.errorCount,
			HealthScore: res.healthScore,
		})
	}
	sort.Slice(details, func(i, j int) bool {
		return details[i].AgeSeconds > details[j].AgeSeconds
	})
	return details
}
