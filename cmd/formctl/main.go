package main

import (
	"os"

	"github.com/gatewell-labs/formgate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
