package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"remitcli/internal/config"
	"remitcli/internal/spreadsheet"
	"remitcli/pkg/contracts/domain"
)

type extractOptions struct {
	render bool
	output string
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <file-or-url>",
		Short: "Print the combined section table of one statement",
		Long: `Extracts the Paid, Refused and In Hold sections of one statement and prints
the combined table without cleaning or uploading it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.render, "render", false, "render the URL in headless Chrome first")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "output format: table or csv")
	return cmd
}

func sourceFromArg(arg string, render bool) domain.Source {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return domain.Source{URL: arg, Render: render}
	}
	return domain.Source{Path: arg}
}

func runExtract(cmd *cobra.Command, root *rootOptions, opts *extractOptions, arg string) error {
	if opts.output != "table" && opts.output != "csv" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, root, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	table, err := a.service.ExtractTable(ctx, sourceFromArg(arg, opts.render))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if table.Len() == 0 && len(table.Columns) == 0 {
		fmt.Fprintln(out, config.MsgNoSections)
		return nil
	}
	if opts.output == "csv" {
		return spreadsheet.Encode(out, table, spreadsheet.FormatCSV)
	}
	return printTable(out, table)
}

func printTable(w io.Writer, table domain.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, line := range table.Matrix() {
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}
	return tw.Flush()
}
