package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("returns on first success", func(t *testing.T) {
		calls := 0
		err := Do(ctx, 3, time.Millisecond, time.Millisecond, func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := Do(ctx, 3, time.Millisecond, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return errors.New("flaky")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		calls := 0
		wantErr := errors.New("down")
		err := Do(ctx, 2, time.Millisecond, time.Millisecond, func() error {
			calls++
			return wantErr
		})
		require.ErrorIs(t, err, wantErr)
		assert.Equal(t, 2, calls)
	})

	t.Run("cancelled context stops the backoff wait", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := Do(cancelled, 3, time.Hour, time.Hour, func() error {
			return errors.New("down")
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}
