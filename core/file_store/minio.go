package file_store

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	apperrors "github.com/Malowking/ragchat/core/errors"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore 先落本地供解析，再上传到对象存储，对象键为相对本地根目录的路径
type MinioStore struct {
	local  *LocalStore
	client *minio.Client
	bucket string
}

var _ FileStore = (*MinioStore)(nil)

// NewMinioStore 创建客户端，bucket 不存在时创建
func NewMinioStore(ctx context.Context, local *LocalStore, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	if local == nil || endpoint == "" || bucket == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParameter, "minio endpoint and bucket are required")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalError, err, "failed to create MinIO client")
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalError, err, "failed to check if bucket exists")
	}
	if !exists {
		if err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalError, err, "failed to create bucket")
		}
		g.Log().Infof(ctx, "Created bucket '%s'", bucket)
	}

	return &MinioStore{local: local, client: client, bucket: bucket}, nil
}

func (s *MinioStore) Save(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	localPath, err := s.local.Save(ctx, dir, name, r)
	if err != nil {
		return "", err
	}
	if err := s.upload(ctx, localPath); err != nil {
		_ = s.local.Delete(ctx, localPath)
		return "", err
	}
	return localPath, nil
}

func (s *MinioStore) upload(ctx context.Context, localPath string) error {
	key, err := s.objectKey(localPath)
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrFileReadFailed, err, "failed to open local file for upload")
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrFileReadFailed, err, "failed to get file stat")
	}

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return apperrors.Wrap(apperrors.ErrFileReadFailed, err, "failed to read file header")
	}
	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return apperrors.Wrap(apperrors.ErrFileReadFailed, err, "failed to seek file to beginning")
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, f, stat.Size(),
		minio.PutObjectOptions{ContentType: http.DetectContentType(header[:n])})
	if err != nil {
		g.Log().Errorf(ctx, "Failed to upload file to MinIO: %v", err)
		return apperrors.Wrap(apperrors.ErrFileUploadFailed, err, "failed to upload to object storage")
	}

	g.Log().Infof(ctx, "File uploaded to MinIO: bucket=%s, key=%s", s.bucket, key)
	return nil
}

func (s *MinioStore) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	key, err := s.objectKey(path)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return apperrors.Wrapf(apperrors.ErrFileDeleteFailed, err, "failed to delete object %s", key)
	}
	g.Log().Infof(ctx, "Deleted object '%s' from bucket '%s'", key, s.bucket)
	return s.local.Delete(ctx, path)
}

func (s *MinioStore) objectKey(localPath string) (string, error) {
	rel, err := s.local.relative(localPath)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
