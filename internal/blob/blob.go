// Package blob contains an interface of uploaded files storage.
package blob

import (
	"context"
	"io"
	"path"

	"github.com/google/uuid"
)

// imageExtensions maps image types http.DetectContentType recognizes to file extensions.
// nolint:gochecknoglobals
var imageExtensions = map[string]string{
	"image/gif":                ".gif",
	"image/png":                ".png",
	"image/jpeg":               ".jpg",
	"image/webp":               ".webp",
	"image/bmp":                ".bmp",
	"image/x-icon":             ".ico",
	"image/vnd.microsoft.icon": ".ico",
}

// Store saves uploaded files and returns stable references to them.
type Store interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (string, error)
}

// ImageExtension returns extension for image content type. It returns false for anything else.
func ImageExtension(contentType string) (string, bool) {
	ext, ok := imageExtensions[contentType]
	return ext, ok
}

// NewKey returns unique key in dir with extension ext.
func NewKey(dir, ext string) string {
	return path.Join(dir, uuid.New().String()+ext)
}
