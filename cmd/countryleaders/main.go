// Package main is the entry point for the countryleaders CLI.
package main

import (
	"os"

	"github.com/jmylchreest/countryleaders/cmd/countryleaders/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
