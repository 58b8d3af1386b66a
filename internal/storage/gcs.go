package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"

	apperrors "remitcli/internal/errors"
)

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	bucket  string
	service *gcs.Service
	logger  *slog.Logger
}

// NewGCS creates a bucket sink. credentialsFile may be empty to use the
// application default credentials; extra client options are appended.
func NewGCS(ctx context.Context, bucket, credentialsFile string, logger *slog.Logger, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, apperrors.NewAppValidationError("gcs bucket is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientOpts := make([]option.ClientOption, 0, len(opts)+1)
	if credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := gcs.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, storageError("gcs", "create client", bucket, err)
	}

	return &GCS{
		bucket:  bucket,
		service: service,
		logger:  logger.With(slog.String("component", "storage.gcs"), slog.String("bucket", bucket)),
	}, nil
}

// Backend implements Sink.
func (g *GCS) Backend() string { return "gcs" }

// Put uploads r as the named object.
func (g *GCS) Put(ctx context.Context, name string, r io.Reader) error {
	if err := validateName(name); err != nil {
		return err
	}

	obj, err := g.service.Objects.Insert(g.bucket, &gcs.Object{Name: name}).
		Media(r).
		Context(ctx).
		Do()
	if err != nil {
		return storageError(g.Backend(), "put", name, err)
	}

	g.logger.DebugContext(ctx, "Object uploaded",
		slog.String("object", obj.Name),
		slog.Uint64("size_bytes", obj.Size))
	return nil
}

// Get downloads the named object.
func (g *GCS) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	resp, err := g.service.Objects.Get(g.bucket, name).Context(ctx).Download()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, storageError(g.Backend(), "get", name, fmt.Errorf("%w: %w", ErrNotFound, err))
		}
		return nil, storageError(g.Backend(), "get", name, err)
	}
	return resp.Body, nil
}
