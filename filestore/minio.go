package filestore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ObjectClient is the subset of the MinIO client used by the cache.
type ObjectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// MinioConfig describes an S3 compatible bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// BaseURL is the public address of the bucket. It defaults to the
	// path style bucket URL of the endpoint.
	BaseURL string
}

// Minio stores the cached files as objects of a bucket.
type Minio struct {
	client  ObjectClient
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewMinio connects to the object storage.
func NewMinio(cfg MinioConfig, logger *zap.Logger) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return newMinio(client, cfg, logger), nil
}

func newMinio(client ObjectClient, cfg MinioConfig, logger *zap.Logger) *Minio {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := cfg.BaseURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return &Minio{client: client, bucket: cfg.Bucket, baseURL: base, logger: logger}
}

func (m *Minio) Exists(ctx context.Context, filename string) (bool, error) {
	name, err := clean(filename)
	if err != nil {
		return false, err
	}
	_, err = m.client.StatObject(ctx, m.bucket, name, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, err
}

func (m *Minio) Set(ctx context.Context, filename string, data []byte, force bool) error {
	name, err := clean(filename)
	if err != nil {
		return err
	}
	if !force {
		if ok, _ := m.Exists(ctx, name); ok {
			return nil
		}
	}
	_, err = m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType(name)})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	m.logger.Debug("object_cached", zap.String("bucket", m.bucket), zap.String("object", name))
	return nil
}

func (m *Minio) URL(filename string) string {
	return joinURL(m.baseURL, filename)
}
