package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"remitcli/internal/config"
	apperrors "remitcli/internal/errors"
	"remitcli/pkg/contracts/domain"
)

// FileLoader reads an uploaded report from disk. Only .html files are
// accepted.
type FileLoader struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewFileLoader creates a FileLoader.
func NewFileLoader(logger *slog.Logger) *FileLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileLoader{
		maxBytes: config.MaxUploadBytes,
		logger:   logger.With(slog.String("component", "file_loader")),
	}
}

// IsUpload reports whether name has the accepted upload extension.
func IsUpload(name string) bool {
	return strings.EqualFold(filepath.Ext(name), config.UploadExtension)
}

// Fetch implements Fetcher.
func (l *FileLoader) Fetch(ctx context.Context, src domain.Source) (*html.Node, error) {
	if src.Path == "" {
		return nil, apperrors.NewAppValidationError("file loader needs a path")
	}
	if !IsUpload(src.Path) {
		return nil, apperrors.NewAppValidationError("only .html files are accepted").
			WithContext("path", src.Path)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewFetchError("loading file", 0, err).WithContext("path", src.Path)
	}

	f, err := os.Open(src.Path)
	if err != nil {
		return nil, apperrors.NewFetchError("opening file", 0, err).WithContext("path", src.Path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, apperrors.NewFetchError("reading file info", 0, err).WithContext("path", src.Path)
	}
	if info.Size() > l.maxBytes {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("file exceeds %d bytes", l.maxBytes)).WithContext("path", src.Path)
	}

	l.logger.DebugContext(ctx, "loading report file",
		slog.String("path", src.Path),
		slog.Int64("size", info.Size()))

	return parseDocument(f, "text/html")
}

// FileInfo describes a report file found by Discover.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discover lists the .html files directly inside dir, oldest first.
func Discover(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.NewFetchError(fmt.Sprintf("reading directory %s", dir), 0, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsUpload(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.Before(files[j].ModTime)
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}
