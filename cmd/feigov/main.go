package main

import (
	"os"

	"feigov/cmd/feigov/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
