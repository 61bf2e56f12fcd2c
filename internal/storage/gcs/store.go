// Package gcs stores objects in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const uploadTimeout = 30 * time.Second

type Config struct {
	Bucket string
	// EmulatorHost points at a fake-gcs-server style emulator, e.g. http://localhost:4443.
	EmulatorHost string
	// PublicBaseURL overrides the URL prefix handed back for uploaded objects.
	PublicBaseURL string
}

type Store struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs: bucket is required")
	}
	var opts []option.ClientOption
	publicBase := "https://storage.googleapis.com/" + cfg.Bucket
	if host := strings.TrimRight(cfg.EmulatorHost, "/"); host != "" {
		opts = append(opts,
			option.WithoutAuthentication(),
			option.WithEndpoint(host+"/storage/v1/"),
		)
		publicBase = host + "/" + cfg.Bucket
	} else {
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}
	if cfg.PublicBaseURL != "" {
		publicBase = strings.TrimRight(cfg.PublicBaseURL, "/")
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket, publicBaseURL: publicBase}, nil
}

// Put uploads data under key and returns its public URL.
func (s *Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: close %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

// Ping checks the bucket is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.Bucket(s.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs: bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
