// csctl is the command-line interface for the clearsite API server.
package main

import (
	"os"

	"github.com/clearsite/clearsite/cmd/csctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
