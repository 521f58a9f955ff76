package main

import (
	"os"

	"github.com/mercodata/wdi-harvest/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
