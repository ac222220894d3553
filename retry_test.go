package weekly_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iguv/weekly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, weekly.BackoffDelays(10*time.Second, 3))
	assert.Nil(t, weekly.BackoffDelays(time.Second, 1))
	assert.Equal(t, []time.Duration{0, 0}, weekly.FixedDelays(0, 3))
}

func TestRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()

		calls := 0
		var retried []int
		err := weekly.Retry(context.Background(), weekly.FixedDelays(0, 3), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("temporary")
			}
			return nil
		}, func(attempt int, _ error, _ time.Duration) {
			retried = append(retried, attempt)
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{1, 2}, retried)
	})

	t.Run("returns last error once delays are exhausted", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := weekly.Retry(context.Background(), weekly.FixedDelays(time.Millisecond, 3), func(context.Context) error {
			calls++
			return errors.New("down")
		}, nil)

		require.EqualError(t, err, "down")
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		t.Parallel()

		calls := 0
		cause := errors.New("unauthorized")
		err := weekly.Retry(context.Background(), weekly.FixedDelays(0, 3), func(context.Context) error {
			calls++
			return weekly.Permanent(cause)
		}, nil)

		require.ErrorIs(t, err, cause)
		assert.True(t, weekly.IsPermanent(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when context is canceled during a wait", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		err := weekly.Retry(ctx, []time.Duration{time.Hour}, func(context.Context) error {
			cancel()
			return errors.New("down")
		}, nil)

		assert.ErrorIs(t, err, context.Canceled)
	})
}
