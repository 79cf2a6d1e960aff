//go:build gcp

package source

import (
	"context"
	"io"

	"shoptrends/internal/errors"

	"cloud.google.com/go/storage"
)

// GCSFetcher reads objects from Google Cloud Storage
type GCSFetcher struct {
	client *storage.Client
}

// NewGCSFetcher creates a client using application default credentials
func NewGCSFetcher(ctx context.Context) (ObjectFetcher, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.ExternalServiceError("gcs", err)
	}
	return &GCSFetcher{client: client}, nil
}

// Fetch opens gs://bucket/key
func (f *GCSFetcher) Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	r, err := f.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, errors.LoadIO("failed to get gs://"+bucket+"/"+key, err)
	}
	return r, nil
}
