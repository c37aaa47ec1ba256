// Package main is the entry point for the goalguard CLI.
package main

import (
	"os"

	"github.com/jmylchreest/goalguard/cmd/goalguard/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
