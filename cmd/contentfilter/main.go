// Package main is the contentfilter entry point.
package main

import (
	"fmt"
	"os"

	"github.com/deppfellow/contentfilter/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
