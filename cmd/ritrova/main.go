// Package main provides the entry point for the ritrova CLI.
package main

import (
	"os"

	"github.com/corsolab/ritrova/cmd/ritrova/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
