package file_store

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/Malowking/ragchat/core/config"
	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/gogf/gf/v2/frame/g"
)

// FileStore 上传文件的存储。Save 返回的路径总是本地可读路径，供入库流水线解析
type FileStore interface {
	// Save 把 r 写入 dir/name，返回本地路径
	Save(ctx context.Context, dir, name string, r io.Reader) (string, error)
	// Delete 删除 Save 返回的路径，文件不存在不算错误
	Delete(ctx context.Context, path string) error
}

// NewFileStore 根据配置创建文件存储
func NewFileStore(ctx context.Context, cfg *config.FileStoreConfig) (FileStore, error) {
	if cfg == nil {
		return nil, apperrors.New(apperrors.ErrInvalidParameter, "file store config cannot be nil")
	}

	local, err := NewLocalStore(ctx, cfg.LocalDir)
	if err != nil {
		return nil, err
	}

	switch cfg.Type {
	case config.FileStoreLocal, "":
		g.Log().Infof(ctx, "Using local file storage at %s", local.baseDir)
		return local, nil
	case config.FileStoreMinio:
		m := cfg.Minio
		store, err := NewMinioStore(ctx, local, m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.UseSSL)
		if err != nil {
			return nil, err
		}
		g.Log().Infof(ctx, "Using MinIO file storage, endpoint=%s, bucket=%s", m.Endpoint, m.Bucket)
		return store, nil
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidParameter, "unsupported file store type: %s", cfg.Type)
	}
}

// cleanName 去掉路径部分，防止写出存储目录
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
