package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ProviderError wraps provider errors with status metadata.
type ProviderError struct {
	Status    int
	Temporary bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("provider error (status=%d)", e.Status)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransient reports whether an error is safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		if provErr.Temporary {
			return true
		}
		if provErr.Status == 429 || (provErr.Status >= 500 && provErr.Status <= 599) {
			return true
		}
	}
	return false
}
