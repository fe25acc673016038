// Package objectstore is the Object-Store Client (§4.6): a uniform
// contract over the remote namespace that serves full and delta
// packages, backed by one of three interchangeable cloud backends.
package objectstore

import (
	"context"
	"errors"
	"time"
)

// Classified error kinds (§4.6, §7). Each Backend maps its own
// SDK-specific failures onto these; retryingClient passes them through
// unchanged, except that exhausted ErrTransient retries become
// ErrUnreachable.
var (
	// ErrNotFound means the key does not exist. Never retried.
	ErrNotFound = errors.New("objectstore: not found")
	// ErrUnauthorized means the backend rejected the credentials. Never retried.
	ErrUnauthorized = errors.New("objectstore: unauthorized")
	// ErrUnreachable means the bucket or credentials are absent entirely,
	// or the transport failed after exhausting retries; the Puller treats
	// this as a trigger for offline mode.
	ErrUnreachable = errors.New("objectstore: unreachable")
	// ErrTransient is what a Backend wraps a transport or 5xx failure in;
	// retryingClient retries on this and only this, converting exhaustion
	// into ErrUnreachable.
	ErrTransient = errors.New("objectstore: transient")
)

// ObjectInfo describes one object discovered by ListAll or Head.
type ObjectInfo struct {
	Key  string
	Size int64
}

// Backend is the minimal set of remote calls a concrete cloud SDK must
// implement, returning errors already classified into the kinds above.
// retryingClient wraps a Backend to add retry/backoff and request
// pacing; callers depend on Client, not Backend.
type Backend interface {
	ListAll(ctx context.Context) ([]ObjectInfo, error)
	Head(ctx context.Context, key string) (ObjectInfo, error)
	Get(ctx context.Context, key string) ([]byte, error)
	GetRange(ctx context.Context, key string, start int64) ([]byte, error)
}

// Client is the Object-Store Client contract of §4.6.
type Client interface {
	Backend
}

// RetryPolicy configures retryingClient (§4.6: "up to N attempts
// (default 3) with fixed delay (default 5s); retries are confined to
// transport/5xx errors").
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy is the policy §4.6 names as the default.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: 5 * time.Second}
}
