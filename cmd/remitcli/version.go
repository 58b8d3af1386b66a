package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"remitcli/pkg/contracts"
)

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), contracts.Version)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	return cmd
}
