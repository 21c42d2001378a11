// package storage publishes committed artifacts to S3-compatible object storage
package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/genrestats/internal/shared"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const csvContentType = "text/csv"

// objectStore is the subset of [minio.Client] used for publishing.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioPublisher uploads artifacts to a bucket under a fixed prefix.
type MinioPublisher struct {
	store    objectStore
	endpoint string
	bucket   string
	prefix   string
	region   string
	logger   *log.Logger
}

// NewMinioPublisher creates a publisher from the [storage.minio] config section.
func NewMinioPublisher(cfg shared.MinioConfig, logger *log.Logger) (*MinioPublisher, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: minio endpoint and bucket are required", shared.ErrInvalidConfig)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return newMinioPublisher(client, client.EndpointURL().String(), cfg, logger), nil
}

func newMinioPublisher(store objectStore, endpoint string, cfg shared.MinioConfig, logger *log.Logger) *MinioPublisher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &MinioPublisher{
		store:    store,
		endpoint: strings.TrimRight(endpoint, "/"),
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		region:   cfg.Region,
		logger:   logger,
	}
}

// ObjectName returns "<prefix>/<basename>" for a local artifact path.
func (p *MinioPublisher) ObjectName(localPath string) string {
	base := filepath.Base(localPath)
	if p.prefix == "" {
		return base
	}
	return path.Join(p.prefix, base)
}

// Publish uploads the file at localPath, creating the bucket first when it does not exist.
func (p *MinioPublisher) Publish(ctx context.Context, localPath string) (string, error) {
	exists, err := p.store.BucketExists(ctx, p.bucket)
	if err != nil {
		return "", fmt.Errorf("failed to check bucket %s: %w", p.bucket, err)
	}

	if !exists {
		if err := p.store.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region}); err != nil {
			return "", fmt.Errorf("failed to create bucket %s: %w", p.bucket, err)
		}
		p.logger.Info("created bucket", "bucket", p.bucket)
	}

	object := p.ObjectName(localPath)
	info, err := p.store.FPutObject(ctx, p.bucket, object, localPath, minio.PutObjectOptions{ContentType: csvContentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", localPath, err)
	}

	p.logger.Debug("uploaded artifact", "bucket", p.bucket, "object", object, "size", info.Size, "etag", info.ETag)
	return fmt.Sprintf("%s/%s/%s", p.endpoint, p.bucket, object), nil
}
