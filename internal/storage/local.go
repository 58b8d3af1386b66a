package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Local stores objects as files below a base directory.
type Local struct {
	dir    string
	logger *slog.Logger
}

// NewLocal returns a sink rooted at dir, creating it if needed.
func NewLocal(dir string, logger *slog.Logger) (*Local, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storageError("local", "create directory", dir, err)
	}
	return &Local{dir: dir, logger: logger.With(slog.String("component", "storage.local"))}, nil
}

// Backend implements Sink.
func (l *Local) Backend() string { return "local" }

// Dir returns the base directory.
func (l *Local) Dir() string { return l.dir }

// Put writes r to a temporary file next to the target and renames it into
// place, so readers never see a partial object.
func (l *Local) Put(ctx context.Context, name string, r io.Reader) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return storageError(l.Backend(), "put", name, err)
	}

	fullPath := l.resolvePath(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return storageError(l.Backend(), "put", name, fmt.Errorf("failed to create directory: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return storageError(l.Backend(), "put", name, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return storageError(l.Backend(), "put", name, fmt.Errorf("failed to copy content: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return storageError(l.Backend(), "put", name, err)
	}
	if err := tmp.Close(); err != nil {
		return storageError(l.Backend(), "put", name, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return storageError(l.Backend(), "put", name, err)
	}

	l.logger.DebugContext(ctx, "Object written",
		slog.String("object", name),
		slog.String("path", fullPath),
		slog.Int64("size_bytes", n))
	return nil
}

// Get opens the named object for reading.
func (l *Local) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, storageError(l.Backend(), "get", name, err)
	}

	f, err := os.Open(l.resolvePath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storageError(l.Backend(), "get", name, fmt.Errorf("%w: %w", ErrNotFound, err))
		}
		return nil, storageError(l.Backend(), "get", name, err)
	}
	return f, nil
}

func (l *Local) resolvePath(name string) string {
	return filepath.Join(l.dir, filepath.FromSlash(name))
}
