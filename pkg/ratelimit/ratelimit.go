// Package ratelimit implements a sliding-window request limiter with
// pluggable storage. The window tracks individual request timestamps, so
// bursts right after a window boundary are still counted.
package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var (
	ErrStoreRequired = errors.New("ratelimit: store is required")
	ErrInvalidLimit  = errors.New("ratelimit: limit must be positive")
	ErrInvalidWindow = errors.New("ratelimit: window must be positive")
	ErrKeyRequired   = errors.New("ratelimit: key is required")
)

// KeyFunc derives the limit key from a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// Store records request timestamps per key and counts them within a window.
type Store interface {
	// RecordIfAllowed counts the key's requests inside the window and, when
	// the count is below limit, records one more. It returns whether the
	// request was admitted and the count after the call.
	RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int64, error)

	// Count returns the number of recorded requests inside the window.
	Count(ctx context.Context, key string, window time.Duration) (int64, error)

	// Reset drops all recorded requests for the key.
	Reset(ctx context.Context, key string) error
}

// Limiter admits at most limit requests per key within a sliding window.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

// Result is the outcome of one admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long to wait before the next request may be
// admitted. Zero when the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

func New(store Store, limit int, window time.Duration) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	return &Limiter{store: store, limit: limit, window: window}, nil
}

// Allow checks and, when admitted, records one request for the key.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	now := time.Now()
	allowed, count, err := l.store.RecordIfAllowed(ctx, key, now, l.window, l.limit)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:   allowed,
		Limit:     l.limit,
		Remaining: max(0, l.limit-int(count)),
		ResetAt:   now.Add(l.window),
	}, nil
}

// Reset clears the key's window.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return l.store.Reset(ctx, key)
}
