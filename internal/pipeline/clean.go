package pipeline

import (
	"context"
	"log/slog"

	apperrors "remitcli/internal/errors"
	"remitcli/internal/infrastructure"
	"remitcli/internal/normalizer"
	"remitcli/internal/spreadsheet"
	"remitcli/pkg/contracts/domain"
)

// CleanResult describes one pass of Clean.
type CleanResult struct {
	RawObject     string
	CleanedObject string
	Records       []domain.CanonicalRecord
	Stats         normalizer.Stats
}

// Clean reads the raw combined spreadsheet back from the sink, normalizes
// it and writes the cleaned spreadsheet. Unlike Run, any storage failure is
// returned as an error.
func (s *Service) Clean(ctx context.Context, label string) (CleanResult, error) {
	ctx, _ = infrastructure.EnsureRunID(ctx)
	res := CleanResult{
		RawObject:     s.objectName("", s.opts.RawObject),
		CleanedObject: s.objectName("", s.opts.CleanedObject),
	}
	if s.sink == nil {
		return CleanResult{}, apperrors.NewStorageError("no output sink configured", nil)
	}

	var table domain.Table
	err := s.tracer.Stage(ctx, StageReadRaw, func(ctx context.Context) error {
		rc, err := s.sink.Get(ctx, res.RawObject)
		if err != nil {
			return err
		}
		defer rc.Close()
		table, err = spreadsheet.Decode(rc, s.opts.Format)
		return err
	})
	if err != nil {
		return CleanResult{}, err
	}

	err = s.tracer.Stage(ctx, StageNormalize, func(ctx context.Context) error {
		var nerr error
		res.Records, res.Stats, nerr = normalizer.NormalizeWithStats(table)
		return nerr
	})
	if err != nil {
		return CleanResult{}, err
	}

	err = s.tracer.Stage(ctx, StageWriteCln, func(ctx context.Context) error {
		return s.store(ctx, res.CleanedObject, normalizer.ToTable(res.Records), label)
	})
	if err != nil {
		return CleanResult{}, err
	}

	s.logger.InfoContext(ctx, "cleaned spreadsheet written",
		slog.String("raw", res.RawObject),
		slog.String("cleaned", res.CleanedObject),
		slog.Int("records", len(res.Records)))
	return res, nil
}
