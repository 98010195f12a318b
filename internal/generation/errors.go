package generation

import (
	"errors"
	"fmt"

	"promptos/internal/provider"
)

// Failure taxonomy surfaced to callers. Cancelled is a user action, not a
// failure; the UI goes quiet instead of showing an error. Quota and
// permission errors need distinct messages because the fix is user action,
// not retry.
var (
	ErrCancelled          = errors.New("generation cancelled")
	ErrQuotaExceeded      = errors.New("provider quota exceeded")
	ErrTransientExhausted = errors.New("provider still busy after retries")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPermissionDenied   = errors.New("screen recording permission required")
	ErrUnauthenticated    = errors.New("no authenticated user")
)

// ProviderError wraps anything that is not one of the typed failures above,
// passing the provider's message through to the caller.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// classify maps a raw provider failure onto the taxonomy.
func classify(err error) error {
	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.IsQuota() {
			return ErrQuotaExceeded
		}
		if statusErr.Unauthorized() {
			return ErrUnauthenticated
		}
	}
	return &ProviderError{Err: err}
}

// isTransient reports whether a failure is worth another attempt.
func isTransient(err error) bool {
	var statusErr *provider.StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.Transient() && !statusErr.IsQuota()
}
