package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newNormalizeCmd(root *rootOptions) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Re-clean the stored combined spreadsheet",
		Long: `Reads the raw combined spreadsheet back from the storage backend, repairs and
normalizes its records and writes the cleaned spreadsheet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newApp(ctx, root, appOptions{persistence: true})
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			res, err := a.service.Clean(ctx, label)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records cleaned into %s\n",
				res.RawObject, len(res.Records), res.CleanedObject)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "label stored with the upload record")
	return cmd
}
