package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"remitcli/internal/infrastructure"
	"remitcli/pkg/contracts/domain"
)

// BatchItem is the outcome of one source in a batch.
type BatchItem struct {
	Source domain.Source
	Result domain.RunResult
	Err    error
}

// RunBatch processes sources concurrently, at most Options.Concurrency at a
// time. A failed source does not stop the others. Each run writes its
// objects under its own run ID so runs never overwrite each other. Items are
// returned in input order; the error is non-nil only if ctx ended first.
func (s *Service) RunBatch(ctx context.Context, sources []domain.Source) ([]BatchItem, error) {
	items := make([]BatchItem, len(sources))

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)

	for i, src := range sources {
		items[i].Source = src
		if ctx.Err() != nil {
			items[i].Err = ctx.Err()
			continue
		}
		g.Go(func() error {
			runID := infrastructure.NewRunID()
			result, err := s.run(infrastructure.WithRunID(ctx, runID), src, runID)
			items[i].Result = result
			items[i].Err = err
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}
	s.logger.InfoContext(ctx, "batch finished",
		slog.Int("sources", len(sources)),
		slog.Int("failed", failed))

	return items, ctx.Err()
}
