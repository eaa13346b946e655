// Package main is the entry point for the duckadapter CLI binary.
package main

import (
	"os"

	cli "duck-adapter/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
