package main

import (
	"os"

	"github.com/nebula-lang/nebula/cmd/nebula/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
