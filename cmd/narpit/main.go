package main

import (
	"os"

	"github.com/dhruvbantval/3128-odyssey/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
