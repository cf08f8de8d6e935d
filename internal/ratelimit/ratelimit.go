// Package ratelimit enforces a per-identifier submission quota over a
// sliding time window.
package ratelimit

import (
	"context"
	"strings"
)

// Store is the capability interface for sliding-window quota state. Allow
// atomically prunes entries older than the window, rejects when the
// remaining count has reached the limit (without recording the attempt),
// and otherwise records the attempt and admits it.
type Store interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// Limiter wraps a Store with identifier normalization and failure policy.
// It never surfaces store errors to the caller: on an internal error it
// fails closed unless configured to fail open.
type Limiter struct {
	store    Store
	failOpen bool
	onError  func(err error)
}

// NewLimiter builds a Limiter. onError is invoked for internal store errors
// (for logging and metrics); it may be nil.
func NewLimiter(store Store, failOpen bool, onError func(err error)) *Limiter {
	return &Limiter{store: store, failOpen: failOpen, onError: onError}
}

// Allow reports whether the identifier has quota remaining and records the
// attempt when it does.
func (l *Limiter) Allow(ctx context.Context, identifier string) bool {
	allowed, err := l.store.Allow(ctx, NormalizeIdentifier(identifier))
	if err != nil {
		if l.onError != nil {
			l.onError(err)
		}
		return l.failOpen
	}
	return allowed
}

// Close releases store resources.
func (l *Limiter) Close() error {
	return l.store.Close()
}

// NormalizeIdentifier canonicalizes a rate-limit key so case or whitespace
// variants of the same email cannot bypass the quota.
func NormalizeIdentifier(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// NoOpStore always allows requests (for tests or disabled rate limiting).
type NoOpStore struct{}

func (NoOpStore) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}

func (NoOpStore) Close() error {
	return nil
}
