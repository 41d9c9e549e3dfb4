package main

import (
	"github.com/asad/userstate/internal/cli"
)

// main is the entry point for the userstate node.
// It delegates to the CLI package which handles command parsing and execution.
func main() {
	cli.Execute()
}
