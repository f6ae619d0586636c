package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoKey(t *testing.T) {
	assert.Equal(t, "videos/abc.mp4", VideoKey("abc", ".MP4"))
}

func TestLocalSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root, "uploads")
	require.NoError(t, err)
	assert.Equal(t, "/uploads", l.Prefix())

	p, err := l.Save(context.Background(), VideoKey("v1", ".mp4"), "video/mp4", strings.NewReader("data"), 4)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/videos/v1.mp4", p)

	b, err := os.ReadFile(filepath.Join(root, "videos", "v1.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))

	require.NoError(t, l.Delete(context.Background(), p))
	_, err = os.Stat(filepath.Join(root, "videos", "v1.mp4"))
	assert.True(t, os.IsNotExist(err))

	// 重复删除不报错
	assert.NoError(t, l.Delete(context.Background(), p))
}

func TestLocalDeleteRejectsForeignPaths(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/uploads/")
	require.NoError(t, err)
	assert.ErrorIs(t, l.Delete(context.Background(), "/etc/passwd"), ErrOutsideStorage)
	assert.ErrorIs(t, l.Delete(context.Background(), "/uploads/../secret"), ErrOutsideStorage)
}

func TestObjectKey(t *testing.T) {
	url := publicObjectURL("bucket", "us-east-1", "videos/a.mp4")
	assert.Equal(t, "https://bucket.s3.us-east-1.amazonaws.com/videos/a.mp4", url)

	key, ok := objectKey("bucket", "us-east-1", url)
	assert.True(t, ok)
	assert.Equal(t, "videos/a.mp4", key)

	_, ok = objectKey("other", "us-east-1", url)
	assert.False(t, ok)
}
