package main

import (
	"os"

	"github.com/eternamaze/qvm/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
