package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/iguv/weekly/mock"
	wslog "github.com/iguv/weekly/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	const listing = "https://www.finma.ch/de/news/"

	t.Run("success is logged at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (string, error) {
				return "<ul><li>Mitteilung</li></ul>", nil
			},
		}

		html, err := wslog.NewLoggingFetcher(inner, logger).Fetch(context.Background(), listing)

		require.NoError(t, err)
		assert.Equal(t, "<ul><li>Mitteilung</li></ul>", html)
		out := buf.String()
		assert.Contains(t, out, "level=DEBUG")
		assert.Contains(t, out, "url="+listing)
		assert.Contains(t, out, "bytes=28")
		assert.Contains(t, out, "duration=")
	})

	t.Run("success is quiet at info level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (string, error) {
				return "<p>ok</p>", nil
			},
		}

		_, err := wslog.NewLoggingFetcher(inner, logger).Fetch(context.Background(), listing)

		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})

	t.Run("failure is logged as warning", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (string, error) {
				return "", errors.New("HTTP 503")
			},
		}

		_, err := wslog.NewLoggingFetcher(inner, logger).Fetch(context.Background(), listing)

		require.Error(t, err)
		out := buf.String()
		assert.Contains(t, out, "level=WARN")
		assert.Contains(t, out, `err="HTTP 503"`)
	})
}

func TestLoggingFetcher_Close(t *testing.T) {
	t.Parallel()

	closed := false
	inner := &mock.Fetcher{
		CloseFn: func() error {
			closed = true
			return nil
		},
	}

	err := wslog.NewLoggingFetcher(inner, slog.New(slog.DiscardHandler)).Close()

	require.NoError(t, err)
	assert.True(t, closed)
}
