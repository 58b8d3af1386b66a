package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"remitcli/internal/config"
	apperrors "remitcli/internal/errors"
	"remitcli/internal/extractor"
	"remitcli/internal/infrastructure"
	"remitcli/internal/normalizer"
	"remitcli/internal/spreadsheet"
	"remitcli/pkg/contracts/domain"
)

// Fetcher acquires and parses one report document.
type Fetcher interface {
	Fetch(ctx context.Context, src domain.Source) (*html.Node, error)
}

// Sink stores output spreadsheets by object name.
type Sink interface {
	Backend() string
	Put(ctx context.Context, name string, r io.Reader) error
	Get(ctx context.Context, name string) (io.ReadCloser, error)
}

// Recorder keeps the side record of each upload.
type Recorder interface {
	Record(ctx context.Context, rec domain.UploadRecord) error
}

// Options control object naming and persistence behavior.
type Options struct {
	RawObject         string
	CleanedObject     string
	Format            spreadsheet.Format
	Uploader          string
	Concurrency       int
	StrictPersistence bool
}

// OptionsFromConfig builds Options from the storage, metadata and pipeline
// configuration sections.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	format, err := spreadsheet.ParseFormat(cfg.Storage.Format)
	if err != nil {
		return Options{}, err
	}
	return Options{
		RawObject:         cfg.Storage.RawObject,
		CleanedObject:     cfg.Storage.CleanedObject,
		Format:            format,
		Uploader:          cfg.Metadata.Uploader,
		Concurrency:       cfg.Pipeline.Concurrency,
		StrictPersistence: cfg.Pipeline.StrictPersistence,
	}, nil
}

// Service runs report documents through extraction and normalization and
// hands the results to the sink and recorder.
type Service struct {
	fetcher  Fetcher
	sink     Sink
	recorder Recorder
	tracer   *RunTracer
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a Service. recorder and tracer may be nil.
func NewService(fetcher Fetcher, sink Sink, recorder Recorder, tracer *RunTracer, opts Options, logger *slog.Logger) *Service {
	if opts.RawObject == "" {
		opts.RawObject = config.DefaultRawObject
	}
	if opts.CleanedObject == "" {
		opts.CleanedObject = config.DefaultCleanedObject
	}
	if opts.Format == "" {
		opts.Format = spreadsheet.FormatXLSX
	}
	if opts.Uploader == "" {
		opts.Uploader = config.AppName
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if tracer == nil {
		tracer = NewRunTracer(nil, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:  fetcher,
		sink:     sink,
		recorder: recorder,
		tracer:   tracer,
		opts:     opts,
		logger:   logger.With(slog.String("component", "pipeline")),
		now:      time.Now,
	}
}

// Run processes one source. A document without sections is not an error:
// the result has status no_sections. Write failures are attached to
// RunResult.PersistenceErr unless strict persistence is enabled, in which
// case they fail the run.
func (s *Service) Run(ctx context.Context, src domain.Source) (domain.RunResult, error) {
	return s.run(ctx, src, "")
}

func (s *Service) run(ctx context.Context, src domain.Source, prefix string) (result domain.RunResult, err error) {
	ctx, runID := infrastructure.EnsureRunID(ctx)
	ctx, span := s.tracer.StartRun(ctx, runID, src)
	defer span.End()

	start := s.now()
	result = domain.RunResult{ID: runID, Source: src.String(), StartedAt: start}
	defer func() {
		result.Duration = s.now().Sub(start)
		s.tracer.FinishRun(ctx, span, result, err)
		if err != nil {
			result = domain.RunResult{}
		}
	}()

	s.logger.InfoContext(ctx, "run started", slog.String("source", src.String()))

	table, sections, err := s.extract(ctx, src)
	if err != nil {
		s.logger.ErrorContext(ctx, "run failed", slog.String("stage", StageExtract), slog.String("error", err.Error()))
		return result, err
	}
	result.Sections = sections
	result.RawRows = table.Len()

	if sections == 0 {
		result.Status = domain.RunStatusNoSections
		result.Message = config.MsgNoSections
		s.logger.InfoContext(ctx, "no sections found", slog.String("source", src.String()))
		return result, nil
	}

	var persistErrs []error
	rawName := s.objectName(prefix, s.opts.RawObject)
	if err := s.tracer.Stage(ctx, StageWriteRaw, func(ctx context.Context) error {
		return s.store(ctx, rawName, table, src.Label)
	}); err != nil {
		persistErrs = append(persistErrs, err)
	}

	var (
		records []domain.CanonicalRecord
		stats   normalizer.Stats
	)
	err = s.tracer.Stage(ctx, StageNormalize, func(ctx context.Context) error {
		var nerr error
		records, stats, nerr = normalizer.NormalizeWithStats(table)
		return nerr
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "run failed", slog.String("stage", StageNormalize), slog.String("error", err.Error()))
		return result, err
	}
	s.logger.DebugContext(ctx, "normalized",
		slog.Int("input_rows", stats.InputRows),
		slog.Int("records", stats.Records),
		slog.Int("continuations", stats.ContinuationsUsed),
		slog.Int("orphans_dropped", stats.OrphansDropped))

	cleanedName := s.objectName(prefix, s.opts.CleanedObject)
	if err := s.tracer.Stage(ctx, StageWriteCln, func(ctx context.Context) error {
		return s.store(ctx, cleanedName, normalizer.ToTable(records), src.Label)
	}); err != nil {
		persistErrs = append(persistErrs, err)
	}

	result.Records = records
	result.Status = domain.RunStatusProcessed
	result.Message = config.MsgRunProcessed
	result.PersistenceErr = errors.Join(persistErrs...)

	if result.PersistenceErr != nil {
		if s.opts.StrictPersistence {
			s.logger.ErrorContext(ctx, "run failed", slog.String("stage", "persist"),
				slog.String("error", result.PersistenceErr.Error()))
			return result, result.PersistenceErr
		}
		s.logger.WarnContext(ctx, "output not persisted", slog.String("error", result.PersistenceErr.Error()))
	}

	s.logger.InfoContext(ctx, "run finished",
		slog.String("status", string(result.Status)),
		slog.Int("sections", result.Sections),
		slog.Int("records", len(records)))
	return result, nil
}

// ExtractTable fetches src and returns its concatenated sections without
// normalizing or persisting anything.
func (s *Service) ExtractTable(ctx context.Context, src domain.Source) (domain.Table, error) {
	table, _, err := s.extract(ctx, src)
	return table, err
}

func (s *Service) extract(ctx context.Context, src domain.Source) (domain.Table, int, error) {
	var doc *html.Node
	if err := s.tracer.Stage(ctx, StageFetch, func(ctx context.Context) error {
		var ferr error
		doc, ferr = s.fetcher.Fetch(ctx, src)
		return ferr
	}); err != nil {
		return domain.Table{}, 0, err
	}

	var sets []domain.RowSet
	if err := s.tracer.Stage(ctx, StageExtract, func(ctx context.Context) error {
		if doc == nil {
			return apperrors.NewParsingError("fetcher returned no document", nil).WithContext("source", src.String())
		}
		sets = extractor.Extract(doc)
		return nil
	}); err != nil {
		return domain.Table{}, 0, err
	}
	return extractor.Concatenate(sets), len(sets), nil
}

// store encodes table, writes it to the sink and records the upload. Every
// failure is a persistence error.
func (s *Service) store(ctx context.Context, name string, table domain.Table, label string) error {
	if s.sink == nil {
		return apperrors.NewStorageError("no output sink configured", nil).WithContext("object", name)
	}

	var buf bytes.Buffer
	if err := spreadsheet.Encode(&buf, table, s.opts.Format); err != nil {
		s.tracer.PersistenceFailed(ctx, "storage")
		return apperrors.NewStorageError("encoding spreadsheet", err).WithContext("object", name)
	}
	if err := s.sink.Put(ctx, name, &buf); err != nil {
		s.tracer.PersistenceFailed(ctx, "storage")
		return err
	}

	s.logger.InfoContext(ctx, "spreadsheet uploaded",
		slog.String("backend", s.sink.Backend()),
		slog.String("object", name),
		slog.Int("rows", table.Len()))

	if s.recorder == nil {
		return nil
	}
	rec := domain.UploadRecord{
		ID:         uuid.NewString(),
		RunID:      infrastructure.GetRunID(ctx),
		Uploader:   s.opts.Uploader,
		Label:      label,
		Backend:    s.sink.Backend(),
		ObjectName: name,
		Rows:       table.Len(),
		UploadedAt: s.now().UTC(),
	}
	return s.tracer.Stage(ctx, StageRecord, func(ctx context.Context) error {
		if err := s.recorder.Record(ctx, rec); err != nil {
			s.tracer.PersistenceFailed(ctx, "metadata")
			return err
		}
		return nil
	})
}

// objectName joins prefix and base and gives base the configured format's
// extension.
func (s *Service) objectName(prefix, base string) string {
	name := strings.TrimSuffix(base, path.Ext(base)) + s.opts.Format.Extension()
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
