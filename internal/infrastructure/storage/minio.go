package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/meeting-intelligence-team/meeting-intelligence/pkg/config"
)

// MinIOClient wraps object storage operations for meeting recordings
type MinIOClient struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
}

// NewMinIOClient creates a MinIO client and ensures the recordings bucket
// exists.
func NewMinIOClient(cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client:     minioClient,
		bucket:     cfg.BucketName,
		presignTTL: cfg.PresignExpiry,
	}
	if client.presignTTL <= 0 {
		client.presignTTL = 4 * time.Hour
	}

	ctx := context.Background()
	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}
	return client, nil
}

func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// UploadRecording stores an audio file under the given object key
func (m *MinIOClient) UploadRecording(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload recording: %w", err)
	}
	return nil
}

// ResolveAudioURL returns a presigned URL the transcription provider can
// fetch the recording from.
func (m *MinIOClient) ResolveAudioURL(ctx context.Context, objectKey string) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectKey, m.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

// RemoveRecording deletes an audio object
func (m *MinIOClient) RemoveRecording(ctx context.Context, objectKey string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove recording: %w", err)
	}
	return nil
}
