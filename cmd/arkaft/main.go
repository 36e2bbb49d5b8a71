package main

import (
	"os"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
