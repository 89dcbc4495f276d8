package main

import (
	"os"

	"github.com/vsinha/bomalloc/pkg/interfaces/cli/commands"
)

func main() {
	os.Exit(commands.Execute())
}
