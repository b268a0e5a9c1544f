package pool

import (
	"context"
	"errors"
	"net"
	"strings"
)

// retryableKinds is the fixed set of transient error kinds the executor will
// retry. Matching is substring-based against the lowercased error text, which
// keeps the policy data-driven and independently testable.
var retryableKinds = []string{
	"timeout",
	"connection reset",
	"connection refused",
	"not found",
}

// IsRetryable reports whether an operation error is classified as transient.
// Non-retryable errors are propagated to the caller immediately without
// consuming any retry budget.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, kind := range retryableKinds {
		if strings.Contains(msg, kind) {
			return true
		}
	}
	return false
}
