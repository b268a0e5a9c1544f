package pool

import (
	"context"
	"time"
)

// Health score tuning. Scores live in [0, 100]; a resource starts at 100,
// recovers on successful probes and decays on failures. Idle resources whose
// score falls below the eviction threshold are closed and replaced.
const (
	healthEvictThreshold = 30
	probeRecovery        = 5
	probePenalty         = 20
	queryPenalty         = 10
)

// healthLoop runs health cycles on a fixed interval until the pool is
// destroyed.
func (p *Pool) healthLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.runHealthCycle(context.Background())
		}
	}
}

// runHealthCycle ages out stale idle resources, probes the remaining idle
// ones, evicts the unhealthy, and replenishes the pool toward MinConnections.
// Acquired resources are never touched; a resource claimed by a caller while
// a cycle is in flight is skipped.
func (p *Pool) runHealthCycle(ctx context.Context) {
	now := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	var stale, candidates []*Resource
	for _, res := range p.resources {
		if res.state != StateIdle {
			continue
		}
		if now.Sub(res.createdAt) > p.config.IdleTimeout || now.Sub(res.lastUsedAt) > p.config.IdleTimeout {
			stale = append(stale, res)
		} else {
			candidates = append(candidates, res)
		}
	}
	for _, res := range stale {
		delete(p.resources, res.id)
		p.evictions++
	}
	p.mu.Unlock()

	for _, res := range stale {
		p.closeEvicted(res, "stale")
	}

	for _, res := range candidates {
		p.probeResource(ctx, res)
	}

	p.replenish(ctx)
}

// probeResource checks one idle resource's liveness via the factory. The
// probe itself runs outside the pool mutex; state is re-checked on both sides
// so a resource claimed by acquire() mid-probe is left alone.
func (p *Pool) probeResource(ctx context.Context, res *Resource) {
	p.mu.Lock()
	if p.closed || p.resources[res.id] == nil || res.state != StateIdle {
		p.mu.Unlock()
		return
	}
	handle := res.handle
	p.mu.Unlock()

	err := p.factory.Probe(ctx, handle)

	p.mu.Lock()
	if p.closed || p.resources[res.id] == nil || res.state != StateIdle {
		p.mu.Unlock()
		return
	}
	if err == nil {
		res.healthScore = min(100, res.healthScore+probeRecovery)
		p.mu.Unlock()
		return
	}
	res.healthScore = max(0, res.healthScore-probePenalty)
	if res.healthScore >= healthEvictThreshold {
		p.mu.Unlock()
		p.log.Debug("resource probe failed", "resource_id", res.id,
			"health_score", res.healthScore, "error", err)
		return
	}
	delete(p.resources, res.id)
	p.evictions++
	p.mu.Unlock()

	p.log.Warn("resource failed health check", "resource_id", res.id, "error", err)
	p.closeEvicted(res, "unhealthy")
}

// replenish creates resources until the pool is back at MinConnections.
// Creation failures stop the pass; the next cycle retries.
func (p *Pool) replenish(ctx context.Context) {
	for {
		p.mu.Lock()
		if p.closed || len(p.resources)+p.reserved >= p.config.MinConnections {
			p.mu.Unlock()
			return
		}
		p.reserved++
		p.mu.Unlock()

		if _, err := p.createResource(ctx, StateIdle); err != nil {
			return
		}
	}
}

func (p *Pool) closeEvicted(res *Resource, reason string) {
	if err := p.factory.Close(res.handle); err != nil {
		p.log.Warn("failed to close evicted resource",
			"resource_id", res.id, "reason", reason, "error", err)
		return
	}
	p.log.Debug("resource evicted", "resource_id", res.id, "reason", reason)
}
