package main

import (
	"os"

	"github.com/ctxhub/ctxhub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
