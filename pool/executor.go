package pool

import (
	"context"
	"fmt"
	"time"
)

// Operation is any caller-supplied function executed against an acquired
// handle. The pool treats its errors opaquely except for retryability
// classification.
type Operation func(ctx context.Context, handle any) (any, error)

// Query runs op against a pooled resource with the configured retry budget.
func (p *Pool) Query(op Operation) (any, error) {
	return p.QueryWithContext(context.Background(), op)
}

// QueryWithContext acquires a resource, invokes op, and releases the resource
// on every exit path. Classified-retryable failures are retried with
// exponential backoff (RetryBaseDelay doubling per attempt) against a freshly
// acquired resource, since the failing one may be unhealthy. Non-retryable
// errors propagate immediately without consuming the retry budget.
func (p *Pool) QueryWithContext(ctx context.Context, op Operation) (any, error) {
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.config.RetryBaseDelay << (attempt - 1)
			p.log.Debug("retrying query", "attempt", attempt+1, "backoff", delay.String())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &PoolError{Op: "query", Err: ctx.Err()}
			}
		}

		res, err := p.AcquireWithContext(ctx)
		if err != nil {
			return nil, err
		}

		result, err := p.runOperation(ctx, res, op)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, &PoolError{Op: "query", Err: fmt.Errorf("%w after %d attempts: %w",
		ErrRetryExhausted, p.config.MaxRetries+1, lastErr)}
}

// runOperation executes op and settles the resource's bookkeeping. The defer
// guarantees release on every exit path, including panics, which surface as
// plain errors.
func (p *Pool) runOperation(ctx context.Context, res *Resource, op Operation) (result any, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation panicked: %v", r)
		}
		p.settleOperation(res, time.Since(start), err)
		p.Release(res)
	}()
	return op(ctx, res.handle)
}

// settleOperation updates per-resource and pool-wide counters after one
// operation. Exactly one totalQueries increment per success; the response
// time EMA moves only on success. Failures penalize the resource's health so
// a degraded resource drifts toward eviction.
func (p *Pool) settleOperation(res *Resource, elapsed time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		res.errorCount++
		res.healthScore = max(0, res.healthScore-queryPenalty)
		p.queryErrors++
		return
	}
	res.queryCount++
	p.totalQueries++
	p.avgResponseMs = ema(p.avgResponseMs, float64(elapsed.Microseconds())/1000)
}
