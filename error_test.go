package weekly_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/iguv/weekly"
	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	t.Parallel()

	t.Run("nil error has no code", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, weekly.ErrorCode(nil))
	})

	t.Run("application error returns its code", func(t *testing.T) {
		t.Parallel()
		err := weekly.Errorf(weekly.EPUBLISH, "rejected: %d", 403)
		assert.Equal(t, weekly.EPUBLISH, weekly.ErrorCode(err))
		assert.Equal(t, "rejected: 403", weekly.ErrorMessage(err))
	})

	t.Run("wrapped application error keeps its code", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("publish: %w", weekly.Errorf(weekly.ENOTFOUND, "no widget"))
		assert.Equal(t, weekly.ENOTFOUND, weekly.ErrorCode(err))
		assert.Equal(t, "no widget", weekly.ErrorMessage(err))
	})

	t.Run("other errors are internal", func(t *testing.T) {
		t.Parallel()
		err := errors.New("boom")
		assert.Equal(t, weekly.EINTERNAL, weekly.ErrorCode(err))
		assert.Equal(t, "Internal error.", weekly.ErrorMessage(err))
	})
}
