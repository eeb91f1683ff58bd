package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

// Store wraps the S3 client for maintenance-record attachments
type Store struct {
	s3Client *s3.Client
	config   *Config
}

// NewStore creates a new attachment store
func NewStore(cfg *Config) (*Store, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("attachment storage is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services (MinIO, B2) need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	store := &Store{
		s3Client: s3Client,
		config:   cfg,
	}

	if err := store.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[Attachments] Successfully initialized S3 client for bucket: %s", cfg.BucketName)
	return store, nil
}

// testConnection checks if the bucket exists; in non-prod it creates one
func (s *Store) testConnection() error {
	ctx := context.Background()

	_, err := s.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.config.BucketName),
	})

	if err != nil {
		if GetAppEnv() != "prod" {
			log.Warnf("[Attachments] Bucket %s not found, attempting to create it", s.config.BucketName)
			return s.createBucket(s.config.BucketName)
		}
		return fmt.Errorf("bucket %s not accessible: %w", s.config.BucketName, err)
	}

	return nil
}

func (s *Store) createBucket(bucketName string) error {
	ctx := context.Background()

	input := &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	}

	// AWS regions other than us-east-1 need the location constraint;
	// S3-compatible endpoints must not set it
	if s.config.EndpointURL == "" && s.config.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.config.Region),
		}
	}

	_, err := s.s3Client.CreateBucket(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}

	log.Infof("[Attachments] Successfully created bucket: %s", bucketName)
	return nil
}

// Put streams an attachment body to object storage.
func (s *Store) Put(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.BucketName),
		Key:           aws.String(objectKey),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Infof("[Attachments] Successfully uploaded: s3://%s/%s", s.config.BucketName, objectKey)
	return nil
}

// Get opens an attachment for reading. The caller must close the returned
// body. Content type and size accompany the stream for response headers.
func (s *Store) Get(ctx context.Context, objectKey string) (io.ReadCloser, string, int64, error) {
	result, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to get object from S3: %w", err)
	}

	contentType := aws.ToString(result.ContentType)
	size := aws.ToInt64(result.ContentLength)
	return result.Body, contentType, size, nil
}

// Delete removes an attachment from object storage.
func (s *Store) Delete(ctx context.Context, objectKey string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	log.Infof("[Attachments] Successfully deleted: s3://%s/%s", s.config.BucketName, objectKey)
	return nil
}

// Exists checks if an attachment object exists.
func (s *Store) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}

// ContentTypeForExt returns the MIME type for common attachment extensions.
func ContentTypeForExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".heic":
		return "image/heic"
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
