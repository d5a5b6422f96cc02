// Package main provides the entry point for the codeindexd CLI.
package main

import (
	"os"

	"github.com/codeindex-mcp/codeindex/cmd/codeindexd/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
