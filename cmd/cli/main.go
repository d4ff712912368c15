// Package main is the entry point for the quantplane CLI.
// The CLI is the developer terminal tool for driving the forecasting
// pipeline through the controller API.
package main

import (
	"os"

	"quantplane/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
