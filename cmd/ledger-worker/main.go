// Command ledger-worker mirrors the ledger to Google Sheets. It is the
// sync-worker subcommand packaged as its own binary for deployment next to
// the API server.
package main

import (
	"os"

	"ledger/internal/cli"
)

func main() {
	os.Exit(cli.Execute(append([]string{"sync-worker"}, os.Args[1:]...)))
}
