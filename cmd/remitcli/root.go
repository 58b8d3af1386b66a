package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "remitcli",
		Short: "Extract and clean remittance statement records",
		Long: `remitcli reads remittance statement pages, extracts the tables under the
Paid, Refused and In Hold Records headings, repairs comment rows and writes
the combined and cleaned spreadsheets to the configured storage backend.

Configuration comes from REMIT_* environment variables, an optional .env
file and an optional config.yaml.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a YAML config file")

	cmd.AddCommand(
		newProcessCmd(opts),
		newExtractCmd(opts),
		newNormalizeCmd(opts),
		newUploadsCmd(opts),
		newVersionCmd(),
	)
	return cmd
}
