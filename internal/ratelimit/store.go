package ratelimit

import (
	"context"
	"time"
)

// Record is the state of one key in its current window.
type Record struct {
	Count   int
	ResetAt time.Time
}

// Store keeps fixed-window counters. The in-memory store serves a single
// process; the Redis store shares counters between instances.
type Store interface {
	// Increment counts one hit for key. A key whose window has elapsed starts
	// a new window of the given length before counting.
	Increment(ctx context.Context, key string, window time.Duration) (Record, error)
	// Get returns the live record for key, if any.
	Get(ctx context.Context, key string) (Record, bool, error)
	// Reset expires key immediately.
	Reset(ctx context.Context, key string) error
}
