package main

import (
	"os"

	"github.com/mmynk/stepsquad/cmd/stepsquad/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
