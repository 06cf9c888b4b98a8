package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const s3NoSuchKey = "NoSuchKey"

// S3Options configures an S3-compatible blob store.
type S3Options struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Prefix is prepended to every key, without a trailing slash.
	Prefix string
}

// S3 stores blobs as objects in one bucket. Object uploads only become
// visible once complete, which gives Put its all-or-nothing behavior.
type S3 struct {
	client *minio.Client
	bucket string
	region string
	prefix string
}

var _ BlobStore = (*S3)(nil)

// NewS3 creates a MinIO client for the configured endpoint.
func NewS3(opts S3Options) (*S3, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &S3{
		client: client,
		bucket: opts.Bucket,
		region: opts.Region,
		prefix: strings.Trim(strings.TrimSpace(opts.Prefix), "/"),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put uploads r under key.
func (s *S3) Put(ctx context.Context, key string, r io.Reader) (BlobPutResult, error) {
	var zero BlobPutResult
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	objectKey, err := s.objectKey(key)
	if err != nil {
		return zero, err
	}
	h := sha256.New()
	info, err := s.client.PutObject(ctx, s.bucket, objectKey, io.TeeReader(r, h), -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return zero, fmt.Errorf("put object %s: %w", objectKey, err)
	}
	return BlobPutResult{Key: strings.TrimSpace(key), SHA256: hex.EncodeToString(h.Sum(nil)), SizeBytes: info.Size}, nil
}

// Open fetches the object under key.
func (s *S3) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", objectKey, err)
	}
	// GetObject is lazy; Stat forces the request so missing keys surface here.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("stat object %s: %w", objectKey, err)
	}
	return obj, nil
}

// Delete removes the object under key. S3 deletes of missing keys succeed.
func (s *S3) Delete(ctx context.Context, key string) error {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		if isS3NotFound(err) {
			return nil
		}
		return fmt.Errorf("remove object %s: %w", objectKey, err)
	}
	return nil
}

// Exists checks object metadata for key.
func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return false, err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, objectKey, minio.StatObjectOptions{}); err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s: %w", objectKey, err)
	}
	return true, nil
}

func (s *S3) objectKey(key string) (string, error) {
	return joinObjectKey(s.prefix, key)
}

func joinObjectKey(prefix, key string) (string, error) {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("blob key is required")
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid blob key")
		}
	}
	if prefix == "" {
		return key, nil
	}
	return prefix + "/" + key, nil
}

func isS3NotFound(err error) bool {
	return minio.ToErrorResponse(err).Code == s3NoSuchKey
}
