package source

import (
	"context"
	"io"

	"shoptrends/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectFetcher opens one object of a bucket store
type ObjectFetcher interface {
	Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// S3Fetcher reads objects from S3 or an S3-compatible endpoint
type S3Fetcher struct {
	client *s3.Client
}

// NewS3Fetcher loads the default AWS configuration (env, shared config, IMDS).
// endpoint is optional and switches to path-style addressing for MinIO/LocalStack.
func NewS3Fetcher(ctx context.Context, endpoint string) (*S3Fetcher, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.ExternalServiceError("s3", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Fetcher{client: client}, nil
}

// Fetch opens s3://bucket/key
func (f *S3Fetcher) Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.LoadIO("failed to get s3://"+bucket+"/"+key, err)
	}
	return out.Body, nil
}
