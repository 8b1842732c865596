package main

import (
	"os"

	"github.com/logsift/logsift/cmd/logsift/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
