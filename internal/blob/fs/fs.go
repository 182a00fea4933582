// Package fs is implementation of blob store over local filesystem.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yatube-net/yatube/internal/blob"
)

type store struct {
	root   string
	prefix string
}

// New creates blob store which keeps files under root and references them as prefix + key.
func New(root, prefix string) blob.Store {
	return store{
		root:   root,
		prefix: prefix,
	}
}

func (s store) Put(_ context.Context, key string, _ string, r io.Reader) (string, error) {
	key = path.Clean("/" + key)[1:]
	if key == "" {
		return "", fmt.Errorf("invalid key")
	}

	p := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("failed to create dir: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	return strings.TrimSuffix(s.prefix, "/") + "/" + key, nil
}
