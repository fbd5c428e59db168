package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/fuboru/panel-backend/pkg/logger"
)

// S3API is the subset of the S3 client used by S3Storage.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type S3Storage struct {
	client  S3API
	region  string
	baseURL string
}

func NewS3Storage(region, accessKeyID, secretAccessKey, baseURL string) *S3Storage {
	var cfg aws.Config
	var err error

	// Static credentials when provided, otherwise the default chain (env, shared config, IAM role)
	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region: region,
			Credentials: credentials.NewStaticCredentialsProvider(
				accessKeyID,
				secretAccessKey,
				"",
			),
		}
	} else {
		cfg, err = config.LoadDefaultConfig(context.Background(),
			config.WithRegion(region),
		)
		if err != nil {
			logger.Warn("Falling back to region-only AWS config", map[string]interface{}{
				"region": region,
				"error":  err.Error(),
			})
			cfg = aws.Config{Region: region}
		}
	}

	return NewS3StorageWithClient(s3.NewFromConfig(cfg), region, baseURL)
}

// NewS3StorageWithClient builds an S3Storage over an existing client.
func NewS3StorageWithClient(client S3API, region, baseURL string) *S3Storage {
	return &S3Storage{
		client:  client,
		region:  region,
		baseURL: baseURL,
	}
}

func (s *S3Storage) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		logger.Error("Failed to upload object", err, map[string]interface{}{
			"bucket": bucket,
			"path":   path,
		})
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, path, err)
	}

	logger.Debug("Object uploaded", map[string]interface{}{
		"bucket": bucket,
		"path":   path,
	})
	return path, nil
}

func (s *S3Storage) Remove(ctx context.Context, bucket string, paths ...string) error {
	objects := make([]types.ObjectIdentifier, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(p)})
	}
	if len(objects) == 0 {
		return nil
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		logger.Error("Failed to remove objects", err, map[string]interface{}{
			"bucket": bucket,
			"count":  len(objects),
		})
		return fmt.Errorf("failed to remove objects from %s: %w", bucket, err)
	}
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("failed to remove %s/%s: %s", bucket, aws.ToString(first.Key), aws.ToString(first.Message))
	}

	logger.Debug("Objects removed", map[string]interface{}{
		"bucket": bucket,
		"count":  len(objects),
	})
	return nil
}

func (s *S3Storage) URL(bucket, path string) string {
	if path == "" {
		return ""
	}
	if s.baseURL != "" {
		// CloudFront or custom domain
		return fmt.Sprintf("%s/%s/%s", s.baseURL, bucket, path)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, path)
}
