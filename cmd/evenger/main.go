package main

import (
	"os"

	"github.com/evenger-io/evenger/cmd/cli"
)

func main() {
	if err := cli.GetCommandOptions().Execute(); err != nil {
		os.Exit(1)
	}
}
