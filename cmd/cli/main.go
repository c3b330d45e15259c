// Package main is the entry point for the nebula CLI binary.
package main

import (
	"os"

	cli "nebula-admin/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
