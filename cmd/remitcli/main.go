// Command remitcli extracts the Paid, Refused and In Hold sections of
// remittance statement pages, repairs and normalizes their records and
// uploads the combined and cleaned spreadsheets.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
