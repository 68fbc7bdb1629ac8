package main

import (
	"os"

	"github.com/nrivas2017/gcp-datalake-pipeline/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
