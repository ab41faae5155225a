package main

import (
	"os"

	"github.com/dialogroute/dialogroute/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
