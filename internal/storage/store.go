// Package storage abstracts where ingest files are read from: a Google
// Cloud Storage bucket in production, a local directory for one-shot runs
// and tests.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
)

// ObjectStore opens a byte stream for a named object.
type ObjectStore interface {
	Open(ctx context.Context, bucket, name string) (io.ReadCloser, error)
}

// GCS reads objects from Google Cloud Storage.
type GCS struct {
	client *gcs.Client
}

func NewGCS(ctx context.Context) (*GCS, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCS{client: client}, nil
}

func (g *GCS) Open(ctx context.Context, bucket, name string) (io.ReadCloser, error) {
	r, err := g.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening gs://%s/%s: %w", bucket, name, err)
	}
	return r, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// Dir serves objects from a local directory, ignoring the bucket. Used by
// `etl run --file` and in tests.
type Dir struct {
	Root string
}

func (d Dir) Open(_ context.Context, _ string, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(d.Root, filepath.Clean(name)))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return f, nil
}
