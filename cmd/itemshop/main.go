package main

import (
	"os"

	"github.com/pumped-fn/itemshop/cmd/itemshop/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
