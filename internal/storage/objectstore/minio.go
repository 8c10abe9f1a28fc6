// Package objectstore uploads run artifacts to S3-compatible object storage.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"policy-reserve-lab/internal/storage"
)

// Config describes the bucket artifacts are written to.
type Config struct {
	Endpoint  string // host:port, an http(s):// prefix is stripped
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
	Prefix    string // object key prefix, usually the run id
}

// Store implements storage.ArtifactStore on a MinIO client.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// Compile-time interface check.
var _ storage.ArtifactStore = (*Store)(nil)

// New connects to the endpoint and creates the bucket if it does not exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket is required", storage.ErrInvalidInput)
	}

	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	s := &Store{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}
	if err := s.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return s, nil
}

// WithPrefix returns a store writing under another key prefix of the same bucket.
func (s *Store) WithPrefix(prefix string) *Store {
	return &Store{client: s.client, bucket: s.bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *Store) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// ObjectKey returns the key an artifact name is stored under.
func (s *Store) ObjectKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Put uploads one file.
func (s *Store) Put(ctx context.Context, name string, data []byte, contentType string) error {
	if name == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.client.PutObject(ctx, s.bucket, s.ObjectKey(name), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.ObjectKey(name), err)
	}
	return nil
}
