package pool

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guileen/respool/logger"
)

// Pool manages a bounded set of reusable resources with advanced lifecycle
// management. All mutations of the resource set and the waiter queue happen
// under a single mutex; factory I/O (Create, Probe, Close) always runs
// outside that critical section so a slow backend cannot stall unrelated
// acquire/release calls.
type Pool struct {
	config  Config
	factory ResourceFactory
	log     *slog.Logger

	mu        sync.Mutex
	resources map[string]*Resource
	waiters   *list.List // of *waiter, FIFO
	reserved  int        // slots held by in-flight factory creations
	closed    bool

	// Lifetime counters, guarded by mu
	totalQueries    uint64
	queryErrors     uint64
	createErrors    uint64
	evictions       uint64
	acquireTimeouts uint64
	avgResponseMs   float64 // EMA, successful queries only
	avgAcquireMs    float64 // EMA of acquisition latency

	monitor *Monitor
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a resource pool, eagerly creating MinConnections resources.
// Individual creation failures during warm-up are logged and left for the
// health checker to repair; they do not fail construction.
func New(config Config, factory ResourceFactory) *Pool {
	config = config.withDefaults()

	p := &Pool{
		config:    config,
		factory:   factory,
		log:       logger.With("component", "pool", "pool", config.Name),
		resources: make(map[string]*Resource),
		waiters:   list.New(),
		done:      make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.AcquireTimeout)
	defer cancel()
	for i := 0; i < config.MinConnections; i++ {
		p.mu.Lock()
		p.reserved++
		p.mu.Unlock()
		if _, err := p.createResource(ctx, StateIdle); err != nil {
			break
		}
	}

	if config.EnableHealthCheck {
		p.wg.Add(1)
		go p.healthLoop()
	}
	if config.EnableMetrics {
		p.monitor = newMonitor(p)
		p.wg.Add(1)
		go p.monitor.loop(config.MonitorInterval, p.done, &p.wg)
	}

	p.log.Info("pool initialized",
		"max_connections", config.MaxConnections,
		"min_connections", config.MinConnections,
		"warm_resources", len(p.resources))
	return p
}

// Name returns the pool's configured name.
func (p *Pool) Name() string {
	return p.config.Name
}

// Monitor returns the pool's monitor, or nil when metrics are disabled.
func (p *Pool) Monitor() *Monitor {
	return p.monitor
}

// Acquire obtains a resource using the configured acquire timeout.
func (p *Pool) Acquire() (*Resource, error) {
	return p.AcquireWithContext(context.Background())
}

// AcquireWithContext obtains a resource for exclusive use by the caller. In
// order it tries: an idle healthy resource (longest idle first), creating a
// new resource while under MaxConnections, and finally queueing FIFO behind
// other waiters. Waiting ends when a release hands over a resource, the
// acquire timeout elapses, the context is cancelled, or the pool shuts down.
func (p *Pool) AcquireWithContext(ctx context.Context) (*Resource, error) {
	start := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, &PoolError{Op: "acquire", Err: ErrPoolClosed}
	}

	if res := p.claimIdleLocked(); res != nil {
		p.recordAcquireLocked(start)
		p.mu.Unlock()
		return res, nil
	}

	if len(p.resources)+p.reserved < p.config.MaxConnections {
		p.reserved++
		p.mu.Unlock()

		res, err := p.createResource(ctx, StateAcquired)
		if err == nil {
			p.mu.Lock()
			p.recordAcquireLocked(start)
			p.mu.Unlock()
			return res, nil
		}
		if errors.Is(err, ErrPoolClosed) {
			return nil, &PoolError{Op: "acquire", Err: ErrPoolClosed}
		}

		// Factory failure: fall through to queueing rather than failing the
		// acquisition outright. A release may still serve this caller.
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, &PoolError{Op: "acquire", Err: ErrPoolClosed}
		}
		if res := p.claimIdleLocked(); res != nil {
			p.recordAcquireLocked(start)
			p.mu.Unlock()
			return res, nil
		}
	}

	w := newWaiter()
	w.elem = p.waiters.PushBack(w)
	p.mu.Unlock()

	timer := time.NewTimer(p.config.AcquireTimeout)
	defer timer.Stop()

	select {
	case res, ok := <-w.ready:
		if !ok {
			return nil, &PoolError{Op: "acquire", Err: w.err}
		}
		p.mu.Lock()
		p.recordAcquireLocked(start)
		p.mu.Unlock()
		return res, nil
	case <-timer.C:
		return p.abandonWait(w, start, ErrAcquireTimeout)
	case <-ctx.Done():
		return p.abandonWait(w, start, ctx.Err())
	}
}

// abandonWait withdraws a waiter after a timeout or cancellation. If the
// queue already resolved the waiter, the resolution wins and the timeout is
// dropped (first-writer-wins, no double delivery).
func (p *Pool) abandonWait(w *waiter, start time.Time, cause error) (*Resource, error) {
	p.mu.Lock()
	if w.elem != nil {
		p.waiters.Remove(w.elem)
		w.elem = nil
		p.acquireTimeouts++
		p.mu.Unlock()
		return nil, &PoolError{Op: "acquire", Err: cause}
	}
	p.mu.Unlock()

	// Lost the race: the outcome is already on the channel.
	res, ok := <-w.ready
	if !ok {
		return nil, &PoolError{Op: "acquire", Err: w.err}
	}
	p.mu.Lock()
	p.recordAcquireLocked(start)
	p.mu.Unlock()
	return res, nil
}

// Release returns a resource to the pool. If waiters are queued, the head
// waiter receives this resource directly instead of it going idle. Resources
// released after Destroy are already closed and are simply dropped.
func (p *Pool) Release(res *Resource) {
	if res == nil {
		return
	}

	p.mu.Lock()
	if p.closed || p.resources[res.id] == nil {
		p.mu.Unlock()
		return
	}
	res.state = StateIdle
	res.lastUsedAt = time.Now()
	p.dispatchLocked()
	p.mu.Unlock()
}

// Destroy shuts the pool down: background tasks stop, queued waiters are
// rejected, and every resource is closed regardless of state. Afterwards all
// acquisitions fail with ErrPoolClosed. Destroy is idempotent.
func (p *Pool) Destroy() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)

	for elem := p.waiters.Front(); elem != nil; elem = elem.Next() {
		w := elem.Value.(*waiter)
		w.elem = nil
		w.reject(ErrPoolClosed)
	}
	p.waiters.Init()

	doomed := make([]*Resource, 0, len(p.resources))
	for _, res := range p.resources {
		doomed = append(doomed, res)
	}
	p.resources = make(map[string]*Resource)
	p.mu.Unlock()

	p.wg.Wait()

	for _, res := range doomed {
		if err := p.factory.Close(res.handle); err != nil {
			p.log.Warn("failed to close resource during shutdown",
				"resource_id", res.id, "error", err)
		}
	}
	p.log.Info("pool destroyed", "closed_resources", len(doomed))
}

// claimIdleLocked picks the longest-idle healthy resource and transitions it
// to Acquired. Idle resources at or below the eviction threshold are skipped;
// the health checker will deal with them. Returns nil when nothing qualifies.
func (p *Pool) claimIdleLocked() *Resource {
	var best *Resource
	for _, res := range p.resources {
		if res.state != StateIdle || res.healthScore < healthEvictThreshold {
			continue
		}
		if best == nil || res.lastUsedAt.Before(best.lastUsedAt) {
			best = res
		}
	}
	if best == nil {
		return nil
	}
	best.state = StateAcquired
	best.lastUsedAt = time.Now()
	return best
}

// dispatchLocked pairs queued waiters with idle resources, preserving FIFO
// order. Called whenever a resource becomes idle.
func (p *Pool) dispatchLocked() {
	for p.waiters.Len() > 0 {
		res := p.claimIdleLocked()
		if res == nil {
			return
		}
		elem := p.waiters.Front()
		p.waiters.Remove(elem)
		w := elem.Value.(*waiter)
		w.elem = nil
		w.deliver(res)
	}
}

// createResource runs the factory outside the pool mutex and registers the
// result. The caller must have incremented p.reserved beforehand; the
// reservation is consumed here on every path so the bound invariant holds
// throughout the factory call.
func (p *Pool) createResource(ctx context.Context, state ResourceState) (*Resource, error) {
	handle, err := p.factory.Create(ctx)

	p.mu.Lock()
	p.reserved--
	if err != nil {
		p.createErrors++
		p.mu.Unlock()
		p.log.Warn("resource creation failed", "error", err)
		return nil, &PoolError{Op: "create", Err: fmt.Errorf("%w: %w", ErrCreateFailed, err)}
	}
	if p.closed {
		p.mu.Unlock()
		if cerr := p.factory.Close(handle); cerr != nil {
			p.log.Warn("failed to close resource created during shutdown", "error", cerr)
		}
		return nil, &PoolError{Op: "create", Err: ErrPoolClosed}
	}

	now := time.Now()
	res := &Resource{
		id:          uuid.NewString(),
		handle:      handle,
		state:       state,
		createdAt:   now,
		lastUsedAt:  now,
		healthScore: 100,
	}
	p.resources[res.id] = res
	if state == StateIdle {
		p.dispatchLocked()
	}
	p.mu.Unlock()

	p.log.Debug("resource created", "resource_id", res.id)
	return res, nil
}

// recordAcquireLocked folds one acquisition latency sample into the EMA.
func (p *Pool) recordAcquireLocked(start time.Time) {
	p.avgAcquireMs = ema(p.avgAcquireMs, float64(time.Since(start).Microseconds())/1000)
}
