package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"remitcli/internal/config"
	apperrors "remitcli/internal/errors"
	"remitcli/pkg/contracts/domain"
)

// HTTPFetcher downloads a report page with a plain GET request.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxBytes  int64
	logger    *slog.Logger
}

// NewHTTPFetcher builds a fetcher from cfg. A nil client gets one with
// cfg.Timeout.
func NewHTTPFetcher(cfg config.FetchConfig, client *http.Client, logger *slog.Logger) *HTTPFetcher {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = config.DefaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &HTTPFetcher{
		client:    client,
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: cfg.UserAgent,
		maxBytes:  config.MaxUploadBytes,
		logger:    logger.With(slog.String("component", "http_fetcher")),
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, src domain.Source) (*html.Node, error) {
	if src.URL == "" {
		return nil, apperrors.NewAppValidationError("http fetcher needs a URL")
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewFetchError("waiting for rate limiter", 0, err).WithContext("url", src.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, apperrors.NewFetchError("building request", 0, err).WithContext("url", src.URL)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.NewFetchError("requesting document", 0, err).WithContext("url", src.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, apperrors.NewFetchError(fmt.Sprintf("unexpected status %s", resp.Status), resp.StatusCode, nil).
			WithContext("url", src.URL)
	}

	f.logger.DebugContext(ctx, "document downloaded",
		slog.String("url", src.URL),
		slog.Int("status", resp.StatusCode),
		slog.String("content_type", resp.Header.Get("Content-Type")))

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, apperrors.NewFetchError("reading document", resp.StatusCode, err).WithContext("url", src.URL)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, apperrors.NewFetchError(fmt.Sprintf("document exceeds %d bytes", f.maxBytes), resp.StatusCode, nil).
			WithContext("url", src.URL)
	}

	return parseDocument(bytes.NewReader(body), resp.Header.Get("Content-Type"))
}
