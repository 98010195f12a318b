package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"promptos/internal/logging"
	"promptos/internal/provider"
)

// maxAttempts includes the first try, so at most two retries follow.
const maxAttempts = 3

// StatusFunc receives human-readable progress strings ("Server busy,
// retrying in 2s...") so the overlay can show something instead of freezing.
type StatusFunc func(status string)

// withRetry runs one provider attempt at a time with exponential backoff on
// transient failures. Cancellation is checked before every attempt and the
// backoff wait itself is interruptible. Quota errors stop immediately.
func withRetry(ctx context.Context, attempt func(context.Context) (*provider.Result, error), status StatusFunc) (*provider.Result, error) {
	for i := 0; i < maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}

		result, err := attempt(ctx)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, ErrCancelled
		}

		classified := classify(err)
		if errors.Is(classified, ErrQuotaExceeded) {
			logging.GenerationError("quota exceeded, stopping retries")
			return nil, classified
		}
		if !isTransient(err) {
			return nil, classified
		}
		if i == maxAttempts-1 {
			logging.GenerationError("still failing after %d attempts", maxAttempts)
			return nil, ErrTransientExhausted
		}

		wait := time.Duration(1<<uint(i)) * time.Second
		var statusErr *provider.StatusError
		if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
			wait = statusErr.RetryAfter
		}

		logging.GenerationWarn("transient failure (attempt %d/%d), retrying in %s", i+1, maxAttempts, wait)
		if status != nil {
			status(fmt.Sprintf("Server busy, retrying in %ds...", int((wait+time.Second-1)/time.Second)))
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ErrCancelled
		}
	}
	return nil, ErrTransientExhausted
}
