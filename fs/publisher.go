// Package fs publishes the weekly fragment into a local HTML file.
package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/iguv/weekly"
	"github.com/iguv/weekly/fragment"
)

// Ensure FilePublisher implements weekly.Publisher at compile time.
var _ weekly.Publisher = (*FilePublisher)(nil)

// FilePublisher replaces the anchored region of a file on disk. A missing
// file is treated as an empty document.
type FilePublisher struct {
	path   string
	anchor weekly.Anchor
}

// NewFilePublisher creates a new FilePublisher for path.
func NewFilePublisher(path string, anchor weekly.Anchor) *FilePublisher {
	return &FilePublisher{path: path, anchor: anchor}
}

// Publish rewrites the file with the region replaced.
func (p *FilePublisher) Publish(ctx context.Context, frag string) (*weekly.PublishResult, error) {
	if p.path == "" {
		return nil, weekly.Errorf(weekly.EINVALID, "output path required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := os.ReadFile(p.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	updated, r := fragment.Replace(string(doc), p.anchor, frag)

	if err := writeFile(p.path, []byte(updated)); err != nil {
		return nil, weekly.Errorf(weekly.EPUBLISH, "write %s: %v", p.path, err)
	}
	return &weekly.PublishResult{
		Replacement: r,
		Target:      p.path,
		Bytes:       len(updated),
	}, nil
}

// writeFile replaces path through a temporary file in the same directory.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".weekly-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
