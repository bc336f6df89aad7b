package main

import (
	"os"

	"github.com/matchpoint-dev/matchpoint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
