package bulk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config carries the settings for an S3-compatible object store. A
// non-empty BaseEndpoint points the client at a minio-style deployment.
type S3Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// NewS3Client builds an S3 client from static credentials.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return client, nil
}

// ObjectGetter is the GetObject slice of the S3 API.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ObjectPutter is the PutObject slice of the S3 API.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// OpenS3Source opens an object for reading, to be used as a Load source.
// The caller closes it.
func OpenS3Source(ctx context.Context, client ObjectGetter, bucket, key string) (io.ReadCloser, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3 object %s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// S3Sink buffers an export in memory and uploads it as one object on Close.
type S3Sink struct {
	ctx    context.Context
	client ObjectPutter
	bucket string
	key    string
	buf    bytes.Buffer
	closed bool
}

// NewS3Sink builds a sink writing to bucket/key. ctx bounds the upload
// performed by Close.
func NewS3Sink(ctx context.Context, client ObjectPutter, bucket, key string) *S3Sink {
	return &S3Sink{ctx: ctx, client: client, bucket: bucket, key: key}
}

func (s *S3Sink) Write(p []byte) (int, error) {
	if s.closed {
		return 0, fmt.Errorf("s3 sink %s/%s already closed", s.bucket, s.key)
	}
	return s.buf.Write(p)
}

// Close uploads the buffered bytes. Closing twice is an error.
func (s *S3Sink) Close() error {
	if s.closed {
		return fmt.Errorf("s3 sink %s/%s already closed", s.bucket, s.key)
	}
	s.closed = true

	_, err := s.client.PutObject(s.ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Body:   bytes.NewReader(s.buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("put s3 object %s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}

// RandomStorageKey generates a date-partitioned object key under prefix.
func RandomStorageKey(prefix string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%d/%d/%v", prefix, d.Year(), d.Month(), d.Day(), uuid.New())
}
