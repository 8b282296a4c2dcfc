package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/DrSkyle/graphwalk/pkg/version"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// S3Store implements BlobStore for AWS S3.
type S3Store struct {
	Client *s3.Client
	Bucket string
}

func NewS3Store(cfg aws.Config, bucket string, optFns ...func(*s3.Options)) *S3Store {
	return &S3Store{
		Client: s3.NewFromConfig(cfg, optFns...),
		Bucket: bucket,
	}
}

// S3Options select the region and, for S3-compatible services, the
// endpoint.
type S3Options struct {
	Region   string
	Endpoint string
}

// LoadS3Config loads the default AWS credential chain and tags requests
// with the application user agent.
func LoadS3Config(ctx context.Context, o S3Options) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(o.Region),
	}
	if o.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(o.Endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}

	cfg.APIOptions = append(cfg.APIOptions, func(stack *middleware.Stack) error {
		return stack.Build.Add(middleware.BuildMiddlewareFunc("UserAgent", func(ctx context.Context, input middleware.BuildInput, next middleware.BuildHandler) (
			middleware.BuildOutput, middleware.Metadata, error,
		) {
			if req, ok := input.Request.(*smithyhttp.Request); ok {
				ua := req.Header.Get("User-Agent")
				req.Header.Set("User-Agent", fmt.Sprintf("%s %s/%s", ua, version.AppName, version.Current))
			}
			return next.HandleBuild(ctx, input)
		}), middleware.After)
	})
	return cfg, nil
}

// OpenS3 builds a store for bucket. A custom endpoint switches to
// path-style addressing, which S3-compatible services expect.
func OpenS3(ctx context.Context, bucket string, o S3Options) (*S3Store, error) {
	cfg, err := LoadS3Config(ctx, o)
	if err != nil {
		return nil, err
	}
	return NewS3Store(cfg, bucket, func(so *s3.Options) {
		so.UsePathStyle = o.Endpoint != ""
	}), nil
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3: %w", err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotFound, s.Bucket, key)
		}
		return nil, fmt.Errorf("failed to download from s3: %w", err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3 objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}

// isNotFound classifies missing keys and buckets by their API error code.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return true
	}
	return false
}
