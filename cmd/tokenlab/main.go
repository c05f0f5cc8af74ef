package main

import (
	"os"

	"github.com/tokenlab-xyz/go-tokenlab/cmd/tokenlab/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
