package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"theneighbor/api/internal/config"
)

type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

// EnsureBucket creates the bucket when missing and, if configured, opens it
// for anonymous reads so the URLs returned by Put resolve publicly.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	bucket := s.cfg.Bucket
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	if s.cfg.PublicRead {
		if err := s.client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
			return fmt.Errorf("set bucket policy %s: %w", bucket, err)
		}
	}
	return nil
}

// Put stores data under objectPath and returns its public URL. Paths are
// unique per call, nothing relies on overwrite semantics.
func (s *ObjectStore) Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, objectPath, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", s.cfg.Bucket, objectPath, err)
	}
	return s.PublicURL(objectPath), nil
}

func (s *ObjectStore) PublicURL(objectPath string) string {
	base := strings.TrimSuffix(s.cfg.PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimSuffix(s.cfg.Endpoint, "/")
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			scheme := "http://"
			if s.cfg.UseSSL {
				scheme = "https://"
			}
			base = scheme + base
		}
	}
	return fmt.Sprintf("%s/%s/%s", base, s.cfg.Bucket, strings.TrimPrefix(objectPath, "/"))
}

func (s *ObjectStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	return err
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}
