package main

import (
	"os"

	"github.com/gnoswap-labs/guard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
