package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"remitcli/internal/config"
	apperrors "remitcli/internal/errors"
	"remitcli/internal/fetch"
	"remitcli/internal/infrastructure"
	"remitcli/internal/metadata"
	"remitcli/internal/pipeline"
	"remitcli/internal/storage"
	"remitcli/pkg/contracts"
)

// app holds everything a command needs, built from configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	otel     *infrastructure.OTelProviders
	process  *infrastructure.ProcessMetrics
	recorder metadata.Recorder
	service  *pipeline.Service
}

type appOptions struct {
	persistence bool
	configure   func(cfg *config.Config)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func newApp(ctx context.Context, root *rootOptions, opts appOptions) (*app, error) {
	cfg, err := loadConfig(root.configFile)
	if err != nil {
		return nil, err
	}
	if opts.configure != nil {
		opts.configure(cfg)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger.DebugContext(ctx, "configuration loaded", slog.String("config", cfg.String()))

	a := &app{cfg: cfg, logger: logger, recorder: metadata.Nop{}}

	a.otel, err = infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, logger)
	if err != nil {
		return nil, err
	}
	metrics, err := infrastructure.CreatePipelineMetrics(a.otel.Meter)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("creating pipeline metrics: %w", err)
	}
	a.process, err = infrastructure.NewProcessMetrics(a.otel.Meter)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("creating process metrics: %w", err)
	}

	var sink pipeline.Sink
	if opts.persistence {
		s, err := newSink(ctx, cfg.Storage, logger)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		sink = s

		a.recorder, err = newRecorder(cfg.Metadata)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	pipeOpts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	fetcher := &fetch.Router{
		HTTP:      fetch.NewHTTPFetcher(cfg.Fetch, nil, logger),
		Render:    fetch.NewRenderer(cfg.Fetch, logger),
		File:      fetch.NewFileLoader(logger),
		RenderAll: cfg.Fetch.Mode == "render",
		Logger:    logger,
	}
	tracer := pipeline.NewRunTracer(a.otel.Tracer, metrics)
	a.service = pipeline.NewService(fetcher, sink, a.recorder, tracer, pipeOpts, logger)
	return a, nil
}

// newSink builds the storage backend named in cfg.
func newSink(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (pipeline.Sink, error) {
	var (
		sink pipeline.Sink
		err  error
	)
	switch cfg.Backend {
	case "local":
		sink, err = storage.NewLocal(cfg.Dir, logger)
	case "gcs":
		sink, err = storage.NewGCS(ctx, cfg.Bucket, cfg.CredentialsFile, logger)
	case "azure":
		sink, err = storage.NewAzure(cfg.AzureConnectionString, cfg.AzureContainer, logger)
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported storage backend %q", cfg.Backend), nil)
	}
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// newRecorder builds the metadata store named in cfg.
func newRecorder(cfg config.MetadataConfig) (metadata.Recorder, error) {
	switch cfg.Driver {
	case "sqlite":
		store, err := metadata.NewSQLiteStore(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := metadata.NewGormStore(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "none":
		return metadata.Nop{}, nil
	}
	return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported metadata driver %q", cfg.Driver), nil)
}

// Close flushes metrics and traces and releases the metadata store.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.recorder != nil {
		errs = append(errs, a.recorder.Close())
	}
	if a.otel != nil {
		if a.process != nil {
			a.process.Collect(ctx)
		}
		errs = append(errs, a.otel.WriteMetrics())

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		errs = append(errs, a.otel.Shutdown(shutdownCtx))
	}
	return errors.Join(errs...)
}
