package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"backoffice/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3API is the subset of the S3 client used here
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage stores objects in an S3-compatible bucket (AWS, MinIO, RustFS)
type S3Storage struct {
	client S3API
	bucket string
	log    *zap.Logger
}

// NewS3Storage builds a client from static credentials when given, falling
// back to the default AWS credential chain otherwise.
func NewS3Storage(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3StorageWithClient(client, cfg.Bucket, log), nil
}

func NewS3StorageWithClient(client S3API, bucket string, log *zap.Logger) *S3Storage {
	if log == nil {
		log = zap.NewNop()
	}
	return &S3Storage{client: client, bucket: bucket, log: log.Named("s3")}
}

func (s *S3Storage) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	// the SDK needs a seekable body to sign the payload
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	s.log.Debug("object stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return key, nil
}

func (s *S3Storage) Delete(ctx context.Context, p string) error {
	key, err := cleanKey(p)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
