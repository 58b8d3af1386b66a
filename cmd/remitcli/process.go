package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"remitcli/internal/config"
	"remitcli/internal/fetch"
	"remitcli/internal/pipeline"
	"remitcli/pkg/contracts/domain"
)

type processOptions struct {
	urls              []string
	files             []string
	dir               string
	render            bool
	label             string
	strictPersistence bool
	json              bool
}

func newProcessCmd(root *rootOptions) *cobra.Command {
	opts := &processOptions{}

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Extract, clean and upload remittance statements",
		Long: `Processes one or more remittance statements given by URL, by file or by a
directory of .html files. Each statement's combined table and its cleaned
records are written to the storage backend and recorded in the metadata store.`,
		Example: `  remitcli process --file statement.html
  remitcli process --url https://billing.example.com/remit?id=42 --render
  remitcli process --dir uploads/ --strict-persistence`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProcess(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.urls, "url", nil, "statement URL (repeatable)")
	f.StringSliceVar(&opts.files, "file", nil, "statement .html file (repeatable)")
	f.StringVar(&opts.dir, "dir", "", "directory of statement .html files")
	f.BoolVar(&opts.render, "render", false, "render URLs in headless Chrome before extracting")
	f.StringVar(&opts.label, "label", "", "label stored with the upload records")
	f.BoolVar(&opts.strictPersistence, "strict-persistence", false, "fail the run when an output cannot be written")
	f.BoolVar(&opts.json, "json", false, "print results as JSON")
	return cmd
}

func (o *processOptions) sources() ([]domain.Source, error) {
	var sources []domain.Source
	for _, u := range o.urls {
		sources = append(sources, domain.Source{URL: u, Render: o.render, Label: o.label})
	}
	for _, p := range o.files {
		sources = append(sources, domain.Source{Path: p, Label: o.label})
	}
	if o.dir != "" {
		files, err := fetch.Discover(o.dir)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			sources = append(sources, domain.Source{Path: f.Path, Label: o.label})
		}
	}
	if len(sources) == 0 {
		return nil, errors.New("nothing to process: give --url, --file or --dir")
	}
	return sources, nil
}

func runProcess(cmd *cobra.Command, root *rootOptions, opts *processOptions) error {
	sources, err := opts.sources()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, config.DefaultBatchDeadline)
	defer cancel()

	a, err := newApp(ctx, root, appOptions{
		persistence: true,
		configure: func(cfg *config.Config) {
			if cmd.Flags().Changed("strict-persistence") {
				cfg.Pipeline.StrictPersistence = opts.strictPersistence
			}
		},
	})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	var items []pipeline.BatchItem
	if len(sources) == 1 {
		result, err := a.service.Run(ctx, sources[0])
		items = []pipeline.BatchItem{{Source: sources[0], Result: result, Err: err}}
	} else {
		items, err = a.service.RunBatch(ctx, sources)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.json {
		if err := writeJSON(out, items); err != nil {
			return err
		}
	} else {
		writeSummary(out, items)
	}

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed", failed, len(items))
	}
	return nil
}

func writeSummary(w io.Writer, items []pipeline.BatchItem) {
	for _, item := range items {
		if item.Err != nil {
			fmt.Fprintf(w, "%s: failed: %v\n", item.Source, item.Err)
			continue
		}
		r := item.Result
		fmt.Fprintf(w, "%s: %s (%d sections, %d records)\n", item.Source, r.Message, r.Sections, len(r.Records))
		if r.PersistenceErr != nil {
			fmt.Fprintf(w, "%s: warning: %v\n", item.Source, r.PersistenceErr)
		}
	}
}

type jsonItem struct {
	domain.RunResult
	Error            string `json:"error,omitempty"`
	PersistenceError string `json:"persistence_error,omitempty"`
}

func writeJSON(w io.Writer, items []pipeline.BatchItem) error {
	out := make([]jsonItem, 0, len(items))
	for _, item := range items {
		ji := jsonItem{RunResult: item.Result}
		if ji.Source == "" {
			ji.Source = item.Source.String()
		}
		if item.Err != nil {
			ji.Error = item.Err.Error()
		}
		if item.Result.PersistenceErr != nil {
			ji.PersistenceError = item.Result.PersistenceErr.Error()
		}
		out = append(out, ji)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
