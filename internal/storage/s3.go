package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Service uploads post images to Amazon S3 (or compatible APIs) for
// deployments that keep their own bucket instead of an imgbb account.
// Objects are written publicly readable under a key prefix.
type S3Service struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	region   string
	endpoint string
}

type S3Options struct {
	Bucket    string
	KeyPrefix string
	Region    string
	Endpoint  string
}

func NewS3Service(client *s3.Client, opts S3Options) *S3Service {
	return &S3Service{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.KeyPrefix, "/"),
		region:   opts.Region,
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
	}
}

func (s *S3Service) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("storage bucket is required")
	}

	key := fmt.Sprintf("%s/%s%s", s.prefix, uuid.NewString(), filepath.Ext(filename))
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload object %s: %w", key, err)
	}

	return s.objectURL(key), nil
}

// objectURL builds the public URL for an uploaded object. Custom
// endpoints (minio and friends) use path-style addressing.
func (s *S3Service) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
