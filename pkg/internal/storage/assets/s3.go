package assets

import (
	"context"
	"errors"
	"fmt"
	"io"

	minio "github.com/minio/minio-go/v7"

	s3c "github.com/yeisme/worksheethub/pkg/internal/storage/s3"
)

// S3 对象存储实现，对象键与本地相对路径一致（去掉 /uploads/ 前缀）.
type S3 struct {
	client *s3c.Client
}

// NewS3 使用已连接的 MinIO 客户端创建资源存储.
func NewS3(client *s3c.Client) *S3 {
	return &S3{client: client}
}

func (s *S3) Name() string { return "s3" }

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code

	return code == "NoSuchKey" || code == "NotFound"
}

func (s *S3) Put(ctx context.Context, rel string, r io.Reader, size int64, contentType string) error {
	key, err := Key(rel)
	if err != nil {
		return err
	}

	// 对象存储没有独占创建，先检查再写
	if _, err := s.client.StatObject(ctx, s.client.Bucket(), key, minio.StatObjectOptions{}); err == nil {
		return ErrExists
	} else if !isNoSuchKey(err) {
		return fmt.Errorf("stat asset %s: %w", rel, err)
	}

	if size <= 0 {
		size = -1
	}

	_, err = s.client.PutObject(ctx, s.client.Bucket(), key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put asset %s: %w", rel, err)
	}

	return nil
}

func (s *S3) Open(ctx context.Context, rel string) (io.ReadCloser, Info, error) {
	key, err := Key(rel)
	if err != nil {
		return nil, Info{}, err
	}

	obj, err := s.client.GetObject(ctx, s.client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Info{}, fmt.Errorf("get asset %s: %w", rel, err)
	}

	st, err := obj.Stat()
	if err != nil {
		_ = obj.Close()

		if isNoSuchKey(err) {
			return nil, Info{}, ErrNotFound
		}

		return nil, Info{}, fmt.Errorf("stat asset %s: %w", rel, err)
	}

	return obj, Info{Path: rel, Size: st.Size, ContentType: st.ContentType, ModTime: st.LastModified}, nil
}

func (s *S3) Remove(ctx context.Context, rel string) error {
	key, err := Key(rel)
	if err != nil {
		return err
	}

	err = s.client.RemoveObject(ctx, s.client.Bucket(), key, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("remove asset %s: %w", rel, err)
	}

	return nil
}

func (s *S3) Walk(ctx context.Context, fn func(Info) error) error {
	for obj := range s.client.ListObjects(ctx, s.client.Bucket(), minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("list assets: %w", obj.Err)
		}

		err := fn(Info{
			Path:        URLPrefix + obj.Key,
			Size:        obj.Size,
			ContentType: obj.ContentType,
			ModTime:     obj.LastModified,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *S3) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return errors.New("s3 client not initialized")
	}

	return s.client.HealthCheck(ctx)
}
