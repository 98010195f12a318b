package provider

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError is a non-2xx HTTP response from a provider. RetryAfter is the
// server-suggested wait from the Retry-After header, zero when absent.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Transient reports whether the failure is worth retrying: rate limiting
// (429) or service overload (503). Quota exhaustion also surfaces as 429 but
// is distinguished by message text, see IsQuota.
func (e *StatusError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

var quotaMarkers = []string{
	"quota",
	"billing",
	"resource_exhausted",
	"exceeded your current quota",
	"insufficient credits",
}

// IsQuota reports whether the error text indicates a hard quota or billing
// problem. Quota errors are fatal: retrying cannot help until the user
// upgrades or the quota window resets.
func (e *StatusError) IsQuota() bool {
	body := strings.ToLower(e.Body)
	for _, marker := range quotaMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// Unauthorized reports an invalid or missing API key.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func newStatusError(providerName string, resp *http.Response, body []byte) *StatusError {
	return &StatusError{
		Provider:   providerName,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// parseRetryAfter handles the delta-seconds form of the header. The HTTP-date
// form is rare on LLM APIs and is ignored.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
