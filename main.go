package main

import (
	"os"

	"github.com/raushankrgupta/fish-scout/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
