package main

import (
	"os"

	"github.com/carolin-violet/violet-reminder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
