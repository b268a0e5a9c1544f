// Package pool provides a bounded resource pool with lifecycle management,
// health checking, metrics collection, and standardized error handling.
//
// A Pool manages a limited number of expensive, reusable handles (backend
// connections, client sessions) shared across many concurrent callers. Handles
// are produced by a caller-supplied ResourceFactory and lent out one caller at
// a time. When the pool is exhausted, callers queue up FIFO and are served as
// resources are released. A background health checker probes idle resources,
// ages out stale ones, and replenishes the pool toward its configured minimum.
package pool
