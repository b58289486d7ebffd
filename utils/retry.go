package utils

import (
	"strings"
	"time"
)

// RetryPolicy wraps a single provider send with bounded retries on
// recognized transient failures. The transient markers are matched against
// the provider error text; the set is configuration, not a hardcoded
// contract, because providers only signal "channel not ready" conditions
// through message strings.
type RetryPolicy struct {
	MaxAttempts      int
	Backoff          time.Duration
	TransientMarkers []string

	// Sleep is injectable for tests; nil means time.Sleep
	Sleep func(time.Duration)
}

// DefaultRetryPolicy matches the production behavior: 3 attempts total with
// a fixed 10s backoff, retrying only on session-class provider errors.
func DefaultRetryPolicy(markers []string) RetryPolicy {
	if len(markers) == 0 {
		markers = []string{"session"}
	}
	return RetryPolicy{
		MaxAttempts:      3,
		Backoff:          10 * time.Second,
		TransientMarkers: markers,
	}
}

// SendWithRetry invokes fn until it succeeds, fails permanently, or the
// attempt budget is exhausted. Only transient errors are retried.
func (p RetryPolicy) SendWithRetry(fn func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !p.IsTransient(err) || attempt == attempts {
			return err
		}
		sleep(p.Backoff)
	}
	return err
}

// IsTransient reports whether the error text carries a recognized transient
// marker.
func (p RetryPolicy) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	for _, marker := range p.TransientMarkers {
		if strings.Contains(text, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
