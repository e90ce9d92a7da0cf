package llm

import (
	"context"
	"time"
)

// withRetry runs fn and, on failure, retries after backoff until attempts
// are exhausted or the context is done. Transient service errors get at
// least one second chance; the caller still sees the final error.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}
