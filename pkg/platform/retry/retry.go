// Package retry provides bounded retry with exponential backoff for calls to
// flaky external endpoints.
package retry

import (
	"context"
	"time"
)

// Do runs fn up to attempts times, doubling the delay between attempts from
// initial up to max. It returns the last error, or ctx.Err() when the context
// ends during a backoff wait.
func Do(ctx context.Context, attempts int, initial, max time.Duration, fn func() error) error {
	if attempts <= 1 {
		return fn()
	}
	d := initial
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
			if d < max {
				d *= 2
				if d > max {
					d = max
				}
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
