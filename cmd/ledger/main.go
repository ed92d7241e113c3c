package main

import (
	"os"

	"ledger/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
