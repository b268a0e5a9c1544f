package pool

import (
	"errors"
	"fmt"
)

// PoolError represents errors specific to resource pool operations
type PoolError struct {
	Op  string
	Err error
}

func (e *PoolError) Error() string {
	return fmt.Sprintf("resource pool error during %s: %v", e.Op, e.Err)
}

func (e *PoolError) Unwrap() error {
	return e.Err
}

// IsPoolError checks if an error is a resource pool error
func IsPoolError(err error) bool {
	var target *PoolError
	return errors.As(err, &target)
}

var (
	// ErrPoolClosed is returned by any operation issued during or after Destroy.
	ErrPoolClosed = errors.New("resource pool is shutting down")
	// ErrAcquireTimeout is returned when a caller waits past the configured
	// acquire timeout without being handed a resource.
	ErrAcquireTimeout = errors.New("resource acquisition timed out")
	// ErrCreateFailed wraps factory failures while producing a new handle.
	ErrCreateFailed = errors.New("resource creation failed")
	// ErrRetryExhausted wraps the last underlying error once Query has spent
	// its full retry budget on a retryable failure.
	ErrRetryExhausted = errors.New("retry budget exhausted")
)
