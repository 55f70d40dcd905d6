// Package main is the entry point for the ottarr application.
package main

import (
	"os"

	"github.com/jwhitfield/ottarr/cmd/ottarr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
