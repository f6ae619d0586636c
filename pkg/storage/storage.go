// Package storage 视频文件存储，本地磁盘或 S3
package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FolderVideos 视频对象的目录前缀
const FolderVideos = "videos"

// ErrOutsideStorage 文件路径不属于当前存储
var ErrOutsideStorage = errors.New("文件不属于当前存储")

// Storage 视频存储接口。Save 返回写入 video.file_path 的路径，Delete 接受同样的路径
type Storage interface {
	Save(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, filePath string) error
}

// VideoKey 视频对象键：videos/{id}{ext}
func VideoKey(id, ext string) string {
	return path.Join(FolderVideos, id+strings.ToLower(ext))
}

// Local 保存在本地目录，通过 /uploads 静态路由访问
type Local struct {
	root   string
	prefix string
}

// NewLocal root 为上传目录，prefix 为对外路径前缀，如 /uploads
func NewLocal(root, prefix string) (*Local, error) {
	if err := os.MkdirAll(filepath.Join(root, FolderVideos), 0o755); err != nil {
		return nil, err
	}
	return &Local{root: root, prefix: "/" + strings.Trim(prefix, "/")}, nil
}

// Root 上传目录
func (l *Local) Root() string { return l.root }

// Prefix 对外路径前缀
func (l *Local) Prefix() string { return l.prefix }

// Save 写入文件，失败时删除不完整的文件
func (l *Local) Save(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	dst := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dst)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", err
	}
	return l.prefix + "/" + key, nil
}

// Delete 删除文件，文件已不存在时不报错
func (l *Local) Delete(_ context.Context, filePath string) error {
	key, ok := strings.CutPrefix(filePath, l.prefix+"/")
	if !ok || strings.Contains(key, "..") {
		return ErrOutsideStorage
	}
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
