package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/iguv/weekly"
	"github.com/iguv/weekly/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePublisher_Publish(t *testing.T) {
	t.Parallel()

	anchor := weekly.DefaultAnchor()

	t.Run("creates a missing file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "out", "weekly.html")

		res, err := fs.NewFilePublisher(path, anchor).Publish(context.Background(), "<h1>Weekly</h1>")

		require.NoError(t, err)
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, anchor.Wrap("<h1>Weekly</h1>"), string(got))
		assert.Equal(t, weekly.ReplaceAppended, res.Mode)
		assert.Equal(t, path, res.Target)
		assert.Equal(t, len(got), res.Bytes)
	})

	t.Run("replaces the region and keeps the rest", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "page.html")
		doc := "<html><body><p>Kopf</p>\n" + anchor.Wrap("alt") + "\n<p>Fuss</p></body></html>"
		require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

		res, err := fs.NewFilePublisher(path, anchor).Publish(context.Background(), "neu")

		require.NoError(t, err)
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "<html><body><p>Kopf</p>\n"+anchor.Wrap("neu")+"\n<p>Fuss</p></body></html>", string(got))
		assert.Equal(t, weekly.ReplaceMarkers, res.Mode)
	})

	t.Run("publishing twice leaves the same file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "page.html")
		require.NoError(t, os.WriteFile(path, []byte("<p>Seite</p>"), 0644))
		pub := fs.NewFilePublisher(path, anchor)

		_, err := pub.Publish(context.Background(), "x")
		require.NoError(t, err)
		once, err := os.ReadFile(path)
		require.NoError(t, err)

		_, err = pub.Publish(context.Background(), "x")
		require.NoError(t, err)
		twice, err := os.ReadFile(path)
		require.NoError(t, err)

		assert.Equal(t, string(once), string(twice))
	})

	t.Run("requires a path", func(t *testing.T) {
		t.Parallel()

		_, err := fs.NewFilePublisher("", anchor).Publish(context.Background(), "x")

		assert.Equal(t, weekly.EINVALID, weekly.ErrorCode(err))
	})

	t.Run("respects a cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fs.NewFilePublisher(filepath.Join(t.TempDir(), "x.html"), anchor).Publish(ctx, "x")

		assert.ErrorIs(t, err, context.Canceled)
	})
}
