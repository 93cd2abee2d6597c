package main

import (
	"os"

	"github.com/tutorai/tutorai/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
