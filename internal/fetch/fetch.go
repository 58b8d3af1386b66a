package fetch

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	apperrors "remitcli/internal/errors"
	"remitcli/pkg/contracts/domain"
)

// Fetcher acquires one report document and returns it parsed.
type Fetcher interface {
	Fetch(ctx context.Context, src domain.Source) (*html.Node, error)
}

var validate = validator.New()

// ValidateSource checks that src names exactly one of a URL or a file path.
func ValidateSource(src domain.Source) error {
	if src.URL != "" && src.Path != "" {
		return apperrors.NewAppValidationError("source must be a URL or a file, not both").
			WithContext("url", src.URL).
			WithContext("path", src.Path)
	}
	if err := validate.Struct(src); err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid source", err).
			WithContext("source", src.String())
	}
	return nil
}

// Router dispatches a source to the fetcher that can acquire it: files go to
// File, URLs marked for rendering (or all URLs when RenderAll is set) go to
// Render, everything else goes to HTTP.
type Router struct {
	HTTP      Fetcher
	Render    Fetcher
	File      Fetcher
	RenderAll bool
	Logger    *slog.Logger
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, src domain.Source) (*html.Node, error) {
	if err := ValidateSource(src); err != nil {
		return nil, err
	}

	var (
		next Fetcher
		kind string
	)
	switch {
	case src.Path != "":
		next, kind = r.File, "file"
	case src.Render || r.RenderAll:
		next, kind = r.Render, "render"
	default:
		next, kind = r.HTTP, "http"
	}
	if next == nil {
		return nil, apperrors.NewAppValidationError("no fetcher configured for source").
			WithContext("fetcher", kind)
	}

	if r.Logger != nil {
		r.Logger.DebugContext(ctx, "acquiring document",
			slog.String("fetcher", kind),
			slog.String("source", src.String()))
	}
	return next.Fetch(ctx, src)
}

// parseDocument decodes r to UTF-8 using the declared or sniffed charset and
// parses it as HTML.
func parseDocument(r io.Reader, contentType string) (*html.Node, error) {
	utf8, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, apperrors.NewParsingError("decoding document charset", err)
	}
	doc, err := html.Parse(utf8)
	if err != nil {
		return nil, apperrors.NewParsingError("parsing HTML document", err)
	}
	return doc, nil
}
