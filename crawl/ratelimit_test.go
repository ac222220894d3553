package crawl_test

import (
	"context"
	"testing"
	"time"

	"github.com/iguv/weekly"
	"github.com/iguv/weekly/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainLimiter(t *testing.T) {
	t.Parallel()

	t.Run("implements weekly.DomainLimiter interface", func(t *testing.T) {
		t.Parallel()
		var _ weekly.DomainLimiter = crawl.NewDomainLimiter(time.Second)
	})

	t.Run("allows immediate first request", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(100 * time.Millisecond)

		start := time.Now()
		err := limiter.Wait(context.Background(), "finma.ch")

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 50*time.Millisecond, "first request should be immediate")
	})

	t.Run("spaces requests to the same host", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(100 * time.Millisecond)

		require.NoError(t, limiter.Wait(context.Background(), "www.finma.ch"))

		start := time.Now()
		err := limiter.Wait(context.Background(), "finma.ch")

		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond, "www prefix should share the bucket")
	})

	t.Run("different hosts have independent limits", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(time.Second)

		require.NoError(t, limiter.Wait(context.Background(), "finma.ch"))

		start := time.Now()
		err := limiter.Wait(context.Background(), "seco.admin.ch")

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 50*time.Millisecond, "different host should not wait")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(time.Second)
		require.NoError(t, limiter.Wait(context.Background(), "finma.ch"))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		assert.Error(t, limiter.Wait(ctx, "finma.ch"), "should fail when context times out")
	})

	t.Run("zero interval disables limiting", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewDomainLimiter(0)

		start := time.Now()
		for range 5 {
			require.NoError(t, limiter.Wait(context.Background(), "finma.ch"))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})
}
