// Package main provides the Leadflow API server and workflow file tooling.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	command := &cli.Command{
		Name:                  "leadflow-api",
		Usage:                 "Serve the CRM API and manage workflow definitions",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			RunAPICommand(),
			NewImportCommand(),
			NewValidateCommand(),
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
