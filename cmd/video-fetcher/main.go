package main

import (
	"os"

	"github.com/Binidu01/video-fetcher/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
