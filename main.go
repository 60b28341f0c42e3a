package main

import (
	"os"

	"github.com/subhanUmer/secureweb-engine/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
