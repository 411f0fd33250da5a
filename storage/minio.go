package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"tunecast/config"
	"tunecast/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store mirrors artifact files into a MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// NewStore connects to MinIO and ensures the configured bucket exists.
func NewStore(cfg *config.Config) (*Store, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created MinIO bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &Store{client: client, bucket: cfg.MinioBucket}, nil
}

// InitMinio verifies connectivity and bucket access for the configured
// endpoint. Used by the minio diagnostic command.
func InitMinio(cfg *config.Config) error {
	_, err := NewStore(cfg)
	return err
}

// UploadFile copies a local file into the bucket under objectPath.
func (s *Store) UploadFile(ctx context.Context, objectPath, filePath string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, objectPath, filePath, minio.PutObjectOptions{
		ContentType: ContentTypeFor(filePath),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}
	return nil
}

// ContentTypeFor maps artifact filenames to their media type.
func ContentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".m3u8"):
		return "application/vnd.apple.mpegurl"
	case strings.HasSuffix(name, ".ts"):
		return "video/MP2T"
	case filepath.Ext(name) == ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
