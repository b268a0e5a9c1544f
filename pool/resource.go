package pool

import (
	"context"
	"time"
)

// ResourceFactory produces and maintains the opaque handles managed by a Pool.
// Create and Probe may block on I/O; the pool always invokes them outside its
// internal critical section. The pool never inspects a handle's shape.
type ResourceFactory interface {
	// Create opens a new handle to the backing service.
	Create(ctx context.Context) (any, error)
	// Probe verifies that an existing handle is still usable.
	Probe(ctx context.Context, handle any) error
	// Close tears down a handle. Best-effort; errors are logged, not surfaced.
	Close(handle any) error
}

// ResourceState identifies which side currently owns a pooled resource.
type ResourceState int32

const (
	// StateIdle means the pool owns the resource and may lend or evict it.
	StateIdle ResourceState = iota
	// StateAcquired means exactly one caller holds the resource.
	StateAcquired
)

func (s ResourceState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquired:
		return "acquired"
	default:
		return "unknown"
	}
}

// Resource is a single pooled handle plus its bookkeeping. All mutable fields
// are guarded by the owning pool's mutex; callers only touch a Resource
// through Pool methods and the ID/Handle accessors.
type Resource struct {
	id          string
	handle      any
	state       ResourceState
	createdAt   time.Time
	lastUsedAt  time.Time
	healthScore int
	queryCount  uint64
	errorCount  uint64
}

// ID returns the resource's unique identifier, assigned at creation.
func (r *Resource) ID() string {
	return r.id
}

// Handle returns the underlying handle. Valid only between Acquire and the
// matching Release; the caller must not retain it afterwards.
func (r *Resource) Handle() any {
	return r.handle
}

// ResourceDetail is a point-in-time view of a single resource, exposed for
// diagnostics and admin tooling.
type ResourceDetail struct {
	ID          string  `json:"id"`
	State       string  `json:"state"`
	AgeSeconds  float64 `json:"age_seconds"`
	IdleSeconds float64 `json:"idle_seconds"`
	QueryCount  uint64  `json:"query_count"`
	ErrorCount  uint64  `json:"error_count"`
	HealthScore int     `json:"health_score"`
}
