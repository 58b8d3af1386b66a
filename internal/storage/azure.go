package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	azstorage "github.com/Azure/azure-sdk-for-go/storage"

	apperrors "remitcli/internal/errors"
)

// Azure stores objects as block blobs in one container.
type Azure struct {
	container *azstorage.Container
	logger    *slog.Logger
}

// NewAzure creates a container sink from a storage account connection
// string. The container is created on first Put if it does not exist.
func NewAzure(connectionString, container string, logger *slog.Logger) (*Azure, error) {
	if container == "" {
		return nil, apperrors.NewAppValidationError("azure container is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := azstorage.NewClientFromConnectionString(connectionString)
	if err != nil {
		return nil, storageError("azure", "create client", container, err)
	}
	blobs := client.GetBlobService()

	return &Azure{
		container: blobs.GetContainerReference(container),
		logger:    logger.With(slog.String("component", "storage.azure"), slog.String("container", container)),
	}, nil
}

// Backend implements Sink.
func (a *Azure) Backend() string { return "azure" }

// Put uploads r as a block blob. The legacy blob client needs the content
// length up front, so r is buffered.
func (a *Azure) Put(ctx context.Context, name string, r io.Reader) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return storageError(a.Backend(), "put", name, err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return storageError(a.Backend(), "put", name, err)
	}

	if _, err := a.container.CreateIfNotExists(&azstorage.CreateContainerOptions{
		Access: azstorage.ContainerAccessTypePrivate,
	}); err != nil {
		return storageError(a.Backend(), "create container", name, err)
	}

	blob := a.container.GetBlobReference(name)
	blob.Properties.ContentLength = int64(len(data))
	if err := blob.CreateBlockBlobFromReader(bytes.NewReader(data), nil); err != nil {
		return storageError(a.Backend(), "put", name, err)
	}

	a.logger.DebugContext(ctx, "Blob uploaded",
		slog.String("object", name),
		slog.Int("size_bytes", len(data)))
	return nil
}

// Get downloads the named blob.
func (a *Azure) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, storageError(a.Backend(), "get", name, err)
	}

	rc, err := a.container.GetBlobReference(name).Get(nil)
	if err != nil {
		var svcErr azstorage.AzureStorageServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode == http.StatusNotFound {
			return nil, storageError(a.Backend(), "get", name, fmt.Errorf("%w: %w", ErrNotFound, err))
		}
		return nil, storageError(a.Backend(), "get", name, err)
	}
	return rc, nil
}
