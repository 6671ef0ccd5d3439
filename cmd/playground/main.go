// Package main is the entry point for the playground CLI.
package main

import (
	"os"

	"github.com/AaronLay10/ScratchyEngine/cmd/playground/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
