package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/phambaophuc/image-editor/internal/models"
	"github.com/phambaophuc/image-editor/pkg/utils"
	"go.uber.org/zap"
)

// S3Store exports images to an S3 bucket and hands back presigned GET URLs.
type S3Store struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	prefix     string
	presignTTL time.Duration
	logger     *zap.Logger
}

// NewS3Store loads credentials and region from the default AWS chain.
func NewS3Store(ctx context.Context, bucket, prefix string, presignTTL time.Duration, logger *zap.Logger) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("failed to create s3 store: no bucket configured")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     bucket,
		prefix:     prefix,
		presignTTL: presignTTL,
		logger:     logger,
	}, nil
}

func (s *S3Store) Name() string { return "s3" }

func (s *S3Store) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	key := s.objectKey(filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign s3 object: %w", err)
	}

	s.logger.Info("Exported image to s3",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("size", len(data)))
	return req.URL, nil
}

func (s *S3Store) HealthCheck(ctx context.Context) string {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return models.Unhealthy(err.Error())
	}
	return models.HealthHealthy
}

func (s *S3Store) objectKey(filename string) string {
	return path.Clean(utils.GenerateStorageKey(s.prefix, filename))
}
