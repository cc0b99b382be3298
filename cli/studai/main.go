package main

import (
	"os"

	studaicmder "github.com/papercomputeco/studai/cmd/studai"
)

func main() {
	cmd := studaicmder.NewStudaiCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
