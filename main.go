package main

import (
	"os"

	"github.com/lecternhq/lectern/cmd/lectern"
)

func main() {
	if err := lectern.Execute(); err != nil {
		os.Exit(1)
	}
}
