// Package main provides the rulesets command.
package main

import (
	"os"

	"github.com/rulesets-dev/rulesets/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
