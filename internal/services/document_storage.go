package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DocumentStorage keeps rendered invoice documents in a single bucket
type DocumentStorage interface {
	Bucket() string
	// Store uploads body as objectName, creating the bucket on first use
	Store(ctx context.Context, objectName, contentType string, body []byte) error
	DownloadURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

type minioDocumentStorage struct {
	client *minio.Client
	bucket string

	mu          sync.Mutex
	bucketReady bool
}

// NewDocumentStorage connects to an S3-compatible endpoint such as MinIO
func NewDocumentStorage(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (DocumentStorage, error) {
	if bucket == "" {
		return nil, errors.New("document bucket name is required")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return &minioDocumentStorage{client: client, bucket: bucket}, nil
}

func (s *minioDocumentStorage) Bucket() string {
	return s.bucket
}

func (s *minioDocumentStorage) Store(ctx context.Context, objectName, contentType string, body []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf("inline; filename=%q", path.Base(objectName)),
	})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", objectName, err)
	}
	return nil
}

func (s *minioDocumentStorage) DownloadURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", objectName, err)
	}
	return u.String(), nil
}

func (s *minioDocumentStorage) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}

	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if !found {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	s.bucketReady = true
	return nil
}
