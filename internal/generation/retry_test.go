package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"promptos/internal/provider"
)

func rateLimited(retryAfter time.Duration) error {
	return &provider.StatusError{Provider: "gemini", StatusCode: 429, Body: "rate limited", RetryAfter: retryAfter}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	var statuses []string

	result, err := withRetry(context.Background(), func(ctx context.Context) (*provider.Result, error) {
		attempts++
		if attempts <= 2 {
			return nil, rateLimited(10 * time.Millisecond)
		}
		return &provider.Result{Text: "done"}, nil
	}, func(s string) { statuses = append(statuses, s) })

	if err != nil {
		t.Fatalf("withRetry failed: %v", err)
	}
	if result.Text != "done" {
		t.Errorf("result = %q", result.Text)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	// One status event per backoff wait, exactly two of them.
	if len(statuses) != 2 {
		t.Fatalf("status events = %d, want 2: %v", len(statuses), statuses)
	}
	for _, s := range statuses {
		if !strings.HasPrefix(s, "Server busy, retrying in ") {
			t.Errorf("unexpected status %q", s)
		}
	}
}

func TestRetryExhaustsAfterMaxAttempts(t *testing.T) {
	attempts := 0
	_, err := withRetry(context.Background(), func(ctx context.Context) (*provider.Result, error) {
		attempts++
		return nil, rateLimited(time.Millisecond)
	}, nil)

	if !errors.Is(err, ErrTransientExhausted) {
		t.Fatalf("err = %v, want ErrTransientExhausted", err)
	}
	if attempts != maxAttempts {
		t.Errorf("attempts = %d, want %d", attempts, maxAttempts)
	}
}

func TestRetryQuotaIsImmediatelyFatal(t *testing.T) {
	attempts := 0
	_, err := withRetry(context.Background(), func(ctx context.Context) (*provider.Result, error) {
		attempts++
		return nil, &provider.StatusError{Provider: "gemini", StatusCode: 429, Body: "you exceeded your current quota"}
	}, nil)

	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on quota)", attempts)
	}
}

func TestRetryNonTransientIsFatal(t *testing.T) {
	attempts := 0
	_, err := withRetry(context.Background(), func(ctx context.Context) (*provider.Result, error) {
		attempts++
		return nil, &provider.StatusError{Provider: "gemini", StatusCode: 400, Body: "bad request"}
	}, nil)

	var pErr *ProviderError
	if !errors.As(err, &pErr) {
		t.Fatalf("err = %v, want ProviderError", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryCancelDuringBackoffAbortsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	done := make(chan error, 1)
	go func() {
		// Retry-After of a minute: only cancellation can end the wait early.
		_, err := withRetry(ctx, func(ctx context.Context) (*provider.Result, error) {
			attempts++
			return nil, rateLimited(time.Minute)
		}, nil)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("err = %v, want ErrCancelled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation did not interrupt the backoff wait")
	}

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no attempt after cancel)", attempts)
	}
}

func TestRetryCancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := withRetry(ctx, func(ctx context.Context) (*provider.Result, error) {
		attempts++
		return nil, nil
	}, nil)

	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0", attempts)
	}
}

func TestRetryHonorsRetryAfterOverBackoff(t *testing.T) {
	attempts := 0
	start := time.Now()

	_, err := withRetry(context.Background(), func(ctx context.Context) (*provider.Result, error) {
		attempts++
		if attempts == 1 {
			return nil, rateLimited(20 * time.Millisecond)
		}
		return &provider.Result{Text: "ok"}, nil
	}, nil)

	if err != nil {
		t.Fatalf("withRetry failed: %v", err)
	}
	// Default backoff for attempt 0 would be one second; Retry-After shrank it.
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("wait took %s, Retry-After override was ignored", elapsed)
	}
}
