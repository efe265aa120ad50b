package main

import (
	"os"

	"github.com/wonderkid/storytime/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
