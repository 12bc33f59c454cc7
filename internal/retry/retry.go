// Package retry bounds collaborator calls: each attempt gets its own
// timeout and failed attempts are retried after a fixed backoff.
package retry

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultBackoff = time.Second
)

type Policy struct {
	Timeout time.Duration // per attempt; zero means no deadline
	Backoff time.Duration
	Retries int // attempts after the first

	// Permanent reports errors that must not be retried.
	Permanent func(error) bool
}

// Default is one retry after a second, ten seconds per attempt.
func Default() Policy {
	return Policy{Timeout: DefaultTimeout, Backoff: DefaultBackoff, Retries: 1}
}

// Do runs fn until it succeeds, fails permanently or runs out of
// attempts. The last error is returned wrapped with the attempt count.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	attempts := p.Retries + 1
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Backoff):
			}
		}

		lastErr = p.attempt(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if p.Permanent != nil && p.Permanent(lastErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func (p Policy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(actx)
}

// Value is Do for calls that return a result.
func Value[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
