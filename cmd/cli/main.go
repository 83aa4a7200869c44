// Package main is the entry point for the anviltrack CLI binary.
package main

import (
	"os"

	cli "anviltrack/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
