// Package s3storage wraps MinIO/S3 interactions for packaging images.
package s3storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/echefulouis/drug-verification-system/internal/config"
)

// ImageKey formats the blob key shared between the extraction and matching
// stages: images/{timestamp}_{verificationId}.jpg.
func ImageKey(timestamp, verificationID string) string {
	return fmt.Sprintf("images/%s_%s.jpg", timestamp, verificationID)
}

// Storage stores source images in a single bucket.
type Storage struct {
	client *minio.Client
	bucket string
	region string
}

// New creates a MinIO client from the Config.
func New(cfg *config.Config) (*Storage, error) {
	client, err := minio.New(cfg.S3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		Secure: cfg.S3.UseSSL,
		Region: cfg.S3.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &Storage{
		client: client,
		bucket: cfg.S3.ImageBucket,
		region: cfg.S3.Region,
	}, nil
}

// EnsureBucket makes sure the image bucket exists before use.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// UploadImage stores the raw image bytes under the given key.
func (s *Storage) UploadImage(ctx context.Context, objectKey string, data []byte) error {
	reader := bytes.NewReader(data)
	opts := minio.PutObjectOptions{ContentType: "image/jpeg"}
	if _, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, int64(len(data)), opts); err != nil {
		return fmt.Errorf("upload image: %w", err)
	}
	return nil
}
