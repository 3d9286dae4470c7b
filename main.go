package main

import (
	"os"

	"github.com/spigell/assessment-flow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
