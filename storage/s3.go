package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string `config:"endpoint" validate:"required"`
	Bucket    string `config:"bucket" validate:"required"`
	Region    string `config:"region"`
	AccessKey string `config:"accessKey"`
	SecretKey string `config:"secretKey"`
	UseSSL    bool   `config:"useSSL"`
	Prefix    string `config:"prefix"`
}

var _ Storage = &S3{}

// S3 stores snapshots as objects in an S3 compatible bucket. A PUT replaces
// an object atomically.
type S3 struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewS3FromConfig(cfg S3Config) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: creating client: %w", err)
	}

	return &S3{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3) objectName(key string) string {
	return s.prefix + sanitizeKey(key)
}

func (s *S3) Read(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.readError(err)
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.readError(err)
	}
	return b, nil
}

func (s *S3) readError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrNotFound
	}
	return fmt.Errorf("s3: reading object: %w", err)
}

func (s *S3) Write(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.objectName(key), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("s3: writing object: %w", err)
	}
	return nil
}
