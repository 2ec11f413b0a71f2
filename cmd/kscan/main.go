// Package main provides the entry point for the kscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/kscanlab/kscan/cmd/kscan/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
