package file_store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gfile"
)

// LocalStore 本地磁盘存储：baseDir/dir/name
type LocalStore struct {
	baseDir string
}

var _ FileStore = (*LocalStore)(nil)

// NewLocalStore 确保根目录存在
func NewLocalStore(ctx context.Context, baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "upload"
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidParameter, err, "invalid upload directory %s", baseDir)
	}
	if err := gfile.Mkdir(abs); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrFileUploadFailed, err, "failed to create directory %s", abs)
	}
	return &LocalStore{baseDir: abs}, nil
}

func (s *LocalStore) Save(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	fileName := cleanName(name)
	subDir := cleanName(dir)
	if fileName == "" || subDir == "" {
		return "", apperrors.Newf(apperrors.ErrInvalidParameter, "invalid file path %s/%s", dir, name)
	}

	targetDir := filepath.Join(s.baseDir, subDir)
	if err := gfile.Mkdir(targetDir); err != nil {
		g.Log().Errorf(ctx, "Failed to create directory %s: %v", targetDir, err)
		return "", apperrors.Wrapf(apperrors.ErrFileUploadFailed, err, "failed to create directory %s", targetDir)
	}

	finalPath := filepath.Join(targetDir, fileName)
	destFile, err := os.Create(finalPath)
	if err != nil {
		g.Log().Errorf(ctx, "Failed to create file %s: %v", finalPath, err)
		return "", apperrors.Wrapf(apperrors.ErrFileUploadFailed, err, "failed to create file %s", fileName)
	}
	defer destFile.Close()

	if _, err = io.Copy(destFile, r); err != nil {
		g.Log().Errorf(ctx, "Failed to write file %s: %v", finalPath, err)
		_ = os.Remove(finalPath)
		return "", apperrors.Wrapf(apperrors.ErrFileUploadFailed, err, "failed to write file %s", fileName)
	}

	g.Log().Infof(ctx, "File saved to local storage: %s", finalPath)
	return finalPath, nil
}

func (s *LocalStore) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if _, err := s.relative(path); err != nil {
		return err
	}
	if !gfile.Exists(path) {
		return nil
	}
	if err := gfile.Remove(path); err != nil {
		return apperrors.Wrapf(apperrors.ErrFileDeleteFailed, err, "failed to delete file %s", filepath.Base(path))
	}
	g.Log().Infof(ctx, "Deleted local file %s", path)
	return nil
}

// relative 返回相对根目录的路径，不在根目录下的路径视为非法
func (s *LocalStore) relative(path string) (string, error) {
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", apperrors.Newf(apperrors.ErrInvalidParameter, "path %s is outside the upload directory", path)
	}
	return rel, nil
}
