package blob

import (
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageExtension(t *testing.T) {
	tt := []struct {
		contentType string
		ext         string
		ok          bool
	}{
		{contentType: "image/gif", ext: ".gif", ok: true},
		{contentType: "image/png", ext: ".png", ok: true},
		{contentType: "image/jpeg", ext: ".jpg", ok: true},
		{contentType: "image/webp", ext: ".webp", ok: true},
		{contentType: "text/html; charset=utf-8"},
		{contentType: "text/xml; charset=utf-8"},
		{contentType: "application/octet-stream"},
	}

	for _, tc := range tt {
		ext, ok := ImageExtension(tc.contentType)
		assert.Equal(t, tc.ok, ok, tc.contentType)
		assert.Equal(t, tc.ext, ext, tc.contentType)
	}
}

func TestNewKey(t *testing.T) {
	a, b := NewKey("posts", ".png"), NewKey("posts", ".png")

	require.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, "posts/"))
	require.Equal(t, ".png", path.Ext(a))
}
