package fs

import (
	"context"
	"errors"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"

	"github.com/yatube-net/yatube/internal/blob"
)

func TestStore_Put(t *testing.T) {
	dir, err := ioutil.TempDir("", "blob")
	require.NoError(t, err)

	s := New(dir, "/media/")

	key := blob.NewKey("posts", ".gif")
	require.True(t, strings.HasPrefix(key, "posts/"))
	require.True(t, strings.HasSuffix(key, ".gif"))

	ref, err := s.Put(context.Background(), key, "image/gif", strings.NewReader("GIF89a"))
	require.NoError(t, err)
	require.Equal(t, "/media/"+key, ref)

	b, err := ioutil.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	require.Equal(t, "GIF89a", string(b))
}

func TestStore_Put_Escape(t *testing.T) {
	dir, err := ioutil.TempDir("", "blob")
	require.NoError(t, err)

	s := New(dir, "/media")

	ref, err := s.Put(context.Background(), "../../etc/passwd", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	require.Equal(t, "/media/etc/passwd", ref)

	_, err = s.Put(context.Background(), "..", "text/plain", strings.NewReader("x"))
	require.Error(t, err)
}

func TestStore_Put_ReadError(t *testing.T) {
	dir, err := ioutil.TempDir("", "blob")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	s := New(dir, "/media/")

	key := blob.NewKey("posts", ".gif")
	r := io.MultiReader(strings.NewReader("GIF89a"), iotest.ErrReader(errors.New("connection reset")))

	_, err = s.Put(context.Background(), key, "image/gif", r)
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	require.True(t, os.IsNotExist(err))
}
