package blobstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig configures the S3-compatible attachment bucket.
type MinIOConfig struct {
	Endpoint  string // host:port
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base for object URLs. Defaults to
	// the endpoint.
	PublicURL string
}

// MinIOStore writes attachments to a MinIO or S3 bucket.
type MinIOStore struct {
	client     *minio.Client
	bucket     string
	publicBase *url.URL
}

// NewMinIOStore connects to the endpoint and creates the bucket if missing.
func NewMinIOStore(ctx context.Context, cfg MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	base, err := publicBaseURL(cfg)
	if err != nil {
		return nil, err
	}
	return &MinIOStore{client: client, bucket: cfg.Bucket, publicBase: base}, nil
}

func publicBaseURL(cfg MinIOConfig) (*url.URL, error) {
	raw := strings.TrimRight(cfg.PublicURL, "/")
	if raw == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		raw = scheme + "://" + cfg.Endpoint
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse public url: %w", err)
	}
	return u, nil
}

// objectURL returns <public base>/<bucket>/<key>.
func objectURL(base *url.URL, bucket, key string) string {
	u := *base
	u.Path = path.Join("/", u.Path, bucket, key)
	return u.String()
}

func (s *MinIOStore) Put(ctx context.Context, key, contentType string, content io.Reader, size int64) (*Object, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	if size == 0 {
		return nil, ErrEmptyObject
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, content, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	return &Object{
		Key:         key,
		URL:         objectURL(s.publicBase, s.bucket, key),
		ContentType: contentType,
		Size:        info.Size,
		Hash:        info.ETag,
	}, nil
}

func (s *MinIOStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}
