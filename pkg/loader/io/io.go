package io

import (
	"context"
	"fmt"
	goio "io"
	"os"
	"path/filepath"
)

// FileSourceOpener opens source files from the local filesystem. Relative
// paths are resolved against Root when it is set.
type FileSourceOpener struct {
	Root string
}

// NewFileSourceOpener creates a filesystem opener rooted at root.
func NewFileSourceOpener(root string) *FileSourceOpener {
	return &FileSourceOpener{Root: root}
}

// Open opens path for reading.
func (o *FileSourceOpener) Open(ctx context.Context, path string) (goio.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(o.Root, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	return f, nil
}
