package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Options configures the S3-compatible blob store.
type Options struct {
	// Endpoint is a custom endpoint URL for S3-compatible providers.
	// Empty uses the default AWS endpoint.
	Endpoint string
	// Region is the bucket region.
	Region string
	// Bucket is the bucket name (required).
	Bucket string
	// AccessKey and SecretKey select static credentials. When AccessKey is
	// empty the SDK default credential chain is used instead.
	AccessKey string
	SecretKey string
	// PathStyle forces path-style addressing (bucket in path, not subdomain),
	// required by most S3-compatible providers.
	PathStyle bool
}

// S3Store stores blobs in an S3-compatible object store.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

var _ Store = (*S3Store)(nil)

// NewS3Store builds the S3 client from the given options.
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("blob: bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("blob: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, data []byte, key, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("blob: put %s: %w", key, err)
	}
	return key, nil
}

func (s *S3Store) Get(ctx context.Context, ref string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return nil, fmt.Errorf("blob: get %s: %w", ref, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("blob: read %s: %w", ref, err)
	}
	return data, nil
}

func (s *S3Store) Presign(ctx context.Context, ref string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("blob: presign %s: %w", ref, err)
	}
	return req.URL, nil
}

func (s *S3Store) Delete(ctx context.Context, ref string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("blob: delete %s: %w", ref, err)
	}
	return nil
}
