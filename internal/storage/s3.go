package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"panchakarma/config"
)

type S3Storage struct {
	client  *minio.Client
	cfg     config.S3Config
	baseURL string
	logger  *zap.Logger
}

func NewS3Storage(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (*S3Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("created attachment bucket", zap.String("bucket", cfg.Bucket))
	}

	return &S3Storage{
		client:  client,
		cfg:     cfg,
		baseURL: objectBaseURL(cfg),
		logger:  logger,
	}, nil
}

// objectBaseURL is the public prefix of every object in the bucket.
// AWS gets virtual-hosted style, anything else (minio) path style.
func objectBaseURL(cfg config.S3Config) string {
	if cfg.Endpoint == "" || strings.HasSuffix(cfg.Endpoint, "amazonaws.com") {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", cfg.Bucket, cfg.Region)
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/", scheme, cfg.Endpoint, cfg.Bucket)
}

func (s *S3Storage) UploadAttachment(ctx context.Context, sessionID, filename string, data []byte) (*Attachment, error) {
	attachment, key, err := inspect(sessionID, filename, data)
	if err != nil {
		return nil, err
	}

	_, err = s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), attachment.Size, minio.PutObjectOptions{
		ContentType: attachment.MimeType,
		UserMetadata: map[string]string{
			"session-id":    sessionID,
			"original-name": attachment.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	attachment.URL = s.baseURL + key

	s.logger.Info("attachment uploaded",
		zap.String("session_id", sessionID),
		zap.String("object", key),
		zap.String("mime_type", attachment.MimeType),
		zap.Int64("size", attachment.Size),
	)

	return attachment, nil
}

func (s *S3Storage) objectKey(fileURL string) (string, error) {
	key, ok := strings.CutPrefix(fileURL, s.baseURL)
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownFileURL, fileURL)
	}
	return key, nil
}

func (s *S3Storage) DeleteFile(ctx context.Context, fileURL string) error {
	if fileURL == "" {
		return nil
	}

	key, err := s.objectKey(fileURL)
	if err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) GetPresignedURL(ctx context.Context, fileURL string, expiry time.Duration) (string, error) {
	key, err := s.objectKey(fileURL)
	if err != nil {
		return "", err
	}

	presignedURL, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}

	return presignedURL.String(), nil
}
