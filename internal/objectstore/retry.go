package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"vkp/internal/logging"
)

// retryingClient wraps a Backend with the retry policy of §4.6 and
// paces outbound calls with a token-bucket limiter, so a misbehaving
// backend cannot be hammered by a candidate-heavy Enumerate pass.
type retryingClient struct {
	backend Backend
	policy  RetryPolicy
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewClient wraps backend with retry/backoff and rate limiting. A nil
// logger falls back to a discarding logger (the ambient convention of
// internal/logging).
func NewClient(backend Backend, policy RetryPolicy, limiter *rate.Limiter, log *slog.Logger) Client {
	log = logging.Default(log)
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &retryingClient{backend: backend, policy: policy, limiter: limiter, log: log}
}

func (c *retryingClient) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := c.policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("objectstore: %s: rate limiter: %w", op, err)
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTransient) {
			return err
		}
		lastErr = err
		c.log.Warn("objectstore: transient failure", "op", op, "attempt", attempt, "error", err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.policy.Delay):
		}
	}
	return fmt.Errorf("%w: %s: exhausted %d attempts: %v", ErrUnreachable, op, attempts, lastErr)
}

func (c *retryingClient) ListAll(ctx context.Context) ([]ObjectInfo, error) {
	var out []ObjectInfo
	err := c.call(ctx, "list_all", func(ctx context.Context) error {
		var err error
		out, err = c.backend.ListAll(ctx)
		return err
	})
	return out, err
}

func (c *retryingClient) Head(ctx context.Context, key string) (ObjectInfo, error) {
	var out ObjectInfo
	err := c.call(ctx, "head", func(ctx context.Context) error {
		var err error
		out, err = c.backend.Head(ctx, key)
		return err
	})
	return out, err
}

func (c *retryingClient) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := c.call(ctx, "get", func(ctx context.Context) error {
		var err error
		out, err = c.backend.Get(ctx, key)
		return err
	})
	return out, err
}

func (c *retryingClient) GetRange(ctx context.Context, key string, start int64) ([]byte, error) {
	var out []byte
	err := c.call(ctx, "get_range", func(ctx context.Context) error {
		var err error
		out, err = c.backend.GetRange(ctx, key, start)
		return err
	})
	return out, err
}
