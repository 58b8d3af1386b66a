package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/net/html"

	"remitcli/internal/config"
	apperrors "remitcli/internal/errors"
	"remitcli/pkg/contracts/domain"
)

var errNoTable = errors.New("no table appeared")

// Renderer loads a report page in headless Chrome and returns the DOM once a
// table element exists, for reports whose tables are built by scripts.
type Renderer struct {
	cfg    config.FetchConfig
	logger *slog.Logger
}

// NewRenderer creates a Renderer. Chrome is started per Fetch call.
func NewRenderer(cfg config.FetchConfig, logger *slog.Logger) *Renderer {
	if cfg.RenderWait <= 0 {
		cfg.RenderWait = config.DefaultRenderWait
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultHTTPTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "renderer")),
	}
}

func (r *Renderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", r.cfg.Headless))
	// Chrome refuses to start its sandbox as root, as in containers.
	if os.Geteuid() == 0 {
		opts = append(opts, chromedp.NoSandbox)
	}
	if r.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.cfg.UserAgent))
	}
	if r.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.cfg.ChromePath))
	}
	return opts
}

// Fetch implements Fetcher.
func (r *Renderer) Fetch(ctx context.Context, src domain.Source) (*html.Node, error) {
	if src.URL == "" {
		return nil, apperrors.NewAppValidationError("renderer needs a URL")
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout+r.cfg.RenderWait)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var outer string
	err := chromedp.Run(browserCtx,
		timedAction(r.logger, "navigate", chromedp.Navigate(src.URL)),
		timedAction(r.logger, "wait_table", waitForTable(r.cfg.RenderWait)),
		chromedp.OuterHTML("html", &outer, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, errNoTable) {
			return nil, apperrors.NewFetchError(
				fmt.Sprintf("no table rendered within %s", r.cfg.RenderWait), 0, err).
				WithContext("url", src.URL)
		}
		return nil, apperrors.NewFetchError("rendering document", 0, err).WithContext("url", src.URL)
	}

	return parseDocument(strings.NewReader(outer), "text/html; charset=utf-8")
}

// waitForTable blocks until a table element is in the DOM or wait elapses.
// Hidden tables count.
func waitForTable(wait time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()

		err := chromedp.WaitReady("table", chromedp.ByQuery).Do(waitCtx)
		if err != nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w after %s", errNoTable, wait)
		}
		return err
	})
}

func timedAction(logger *slog.Logger, name string, act chromedp.Action) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		start := time.Now()
		err := act.Do(ctx)
		logger.DebugContext(ctx, "browser action finished",
			slog.String("action", name),
			slog.Duration("elapsed", time.Since(start)),
			slog.Bool("ok", err == nil))
		return err
	})
}
