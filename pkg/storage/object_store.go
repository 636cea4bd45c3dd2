package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DeleteError reports one object that could not be removed.
type DeleteError struct {
	Key     string
	Message string
}

// DeleteResult is the outcome of a bulk delete. Callers that mutate rows
// after deleting objects must treat a non-empty Errors slice as a hard
// failure.
type DeleteResult struct {
	Deleted []string
	Errors  []DeleteError
}

// ObjectStore provides access to the image object storage. Uploads happen
// through presigned PUT URLs issued here; the data layer only ever sees
// object keys.
type ObjectStore interface {
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)
	DeleteObjects(ctx context.Context, keys []string) (DeleteResult, error)
}

// MinioStore implements ObjectStore for MinIO/S3 compatible storage.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// PresignGet generates a pre-signed GET URL for an image key.
func (m *MinioStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return url.String(), nil
}

// PresignPut generates a pre-signed PUT URL so the client can upload an
// image before calling the create/update actions.
func (m *MinioStore) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedPutObject(ctx, m.bucket, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return url.String(), nil
}

// DeleteObjects removes the given keys in one bulk call and reports per-key
// failures instead of aborting on the first one.
func (m *MinioStore) DeleteObjects(ctx context.Context, keys []string) (DeleteResult, error) {
	result := DeleteResult{}
	if len(keys) == 0 {
		return result, nil
	}
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	failed := make(map[string]string)
	for rmErr := range m.client.RemoveObjects(ctx, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rmErr.Err != nil {
			failed[rmErr.ObjectName] = rmErr.Err.Error()
		}
	}
	for _, key := range keys {
		if msg, ok := failed[key]; ok {
			result.Errors = append(result.Errors, DeleteError{Key: key, Message: msg})
			continue
		}
		result.Deleted = append(result.Deleted, key)
	}
	return result, nil
}
