package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	apperrors "remitcli/internal/errors"
)

// ErrNotFound is wrapped by Get when the named object does not exist.
var ErrNotFound = errors.New("object not found")

// Sink stores named objects. Put replaces any existing object of the same
// name.
type Sink interface {
	// Backend names the storage backend, e.g. "local" or "gcs".
	Backend() string
	Put(ctx context.Context, name string, r io.Reader) error
	Get(ctx context.Context, name string) (io.ReadCloser, error)
}

// validateName rejects object names that could escape the sink's namespace.
func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperrors.NewAppValidationError("object name is empty")
	case strings.ContainsRune(name, '\\'),
		strings.HasPrefix(name, "/"),
		path.Clean(name) != name,
		name == "..",
		strings.HasPrefix(name, "../"):
		return apperrors.NewAppValidationError("object name is not a clean relative path").WithContext("name", name)
	}
	return nil
}

func storageError(backend, op, name string, cause error) error {
	return apperrors.NewStorageError(op+" failed", cause).
		WithContext("backend", backend).
		WithContext("object", name)
}
