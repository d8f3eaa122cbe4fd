package main

import (
	"os"

	"github.com/bnema/studentgym/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
