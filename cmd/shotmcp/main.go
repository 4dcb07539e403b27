// Package main provides the entry point for the shotmcp CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/shotmcp/cmd/shotmcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
