package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the S3-compatible endpoint settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	PublicURL string // optional CDN/base URL for serving objects
}

// MinioStore implements Store over any S3-compatible endpoint.
type MinioStore struct {
	core      *minio.Client
	bucket    string
	publicURL string
}

// NewMinio connects to the endpoint and creates the bucket if missing.
func NewMinio(ctx context.Context, cfg Config) (*MinioStore, error) {
	core, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: connect to %s: %w", cfg.Endpoint, err)
	}

	if err := ensureBucket(ctx, core, cfg.Bucket, cfg.Region); err != nil {
		return nil, fmt.Errorf("storage: ensure bucket %s: %w", cfg.Bucket, err)
	}

	return &MinioStore{core: core, bucket: cfg.Bucket, publicURL: cfg.PublicURL}, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket, region string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

// Put uploads one object.
func (s *MinioStore) Put(ctx context.Context, path string, r io.Reader, size int64, opts *PutOptions) error {
	contentType := ""
	if opts != nil {
		contentType = opts.ContentType
	}
	_, err := s.core.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Delete removes one object. Deleting a missing object is not an error.
func (s *MinioStore) Delete(ctx context.Context, path string) error {
	return s.core.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
}

// URL returns a public URL for the object.
func (s *MinioStore) URL(path string) string {
	path = strings.TrimLeft(path, "/")
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.publicURL, "/"), path)
	}
	if endpoint := s.core.EndpointURL(); endpoint != nil {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(endpoint.String(), "/"), s.bucket, path)
	}
	return fmt.Sprintf("/%s/%s", s.bucket, path)
}

var _ Store = (*MinioStore)(nil)
