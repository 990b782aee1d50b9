package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/config"
	"github.com/dukex/leadflow/pkg/log"
	"github.com/dukex/leadflow/pkg/services"
	"github.com/urfave/cli/v3"
)

var ErrInvalidDefinitions = errors.New("invalid workflow definitions found")

// validateDefinitions reports every invalid definition to out and returns
// how many were invalid.
func validateDefinitions(service *services.Workflow, definitions []map[string]any, out io.Writer) int {
	invalid := 0

	for i, definition := range definitions {
		err := service.Validate(definition)
		if err != nil {
			invalid++

			_, _ = fmt.Fprintf(out, "  [%d] %v: %v\n", i, definition["trigger_event"], err)

			continue
		}

		_, _ = fmt.Fprintf(out, "  [%d] %v: ok\n", i, definition["trigger_event"])
	}

	return invalid
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "YAML file with a top-level workflows list",
		Required: true,
	}
}

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate workflow definitions in a YAML file without storing them",
		Flags:   cmd.Flags([]cli.Flag{fileFlag()}, cmd.LogFlags()),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			definitions, err := config.LoadDefinitions(command.String("file"))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(os.Stdout, "Validating %d workflow definitions\n", len(definitions))

			invalid := validateDefinitions(services.NewWorkflow(nil), definitions, os.Stdout)
			if invalid > 0 {
				return fmt.Errorf("%w: %d of %d", ErrInvalidDefinitions, invalid, len(definitions))
			}

			return nil
		},
	}
}

// NewImportCommand validates the whole file first and stores nothing if any
// definition is invalid.
func NewImportCommand() *cli.Command {
	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Create workflow definitions from a YAML file",
		Flags:   cmd.Flags([]cli.Flag{fileFlag()}, cmd.DatabaseFlags(), cmd.LogFlags()),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("import")

			definitions, err := config.LoadDefinitions(command.String("file"))
			if err != nil {
				return err
			}

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			persistence, err = cmd.WithCache(ctx, logger, persistence, command.String("redis-url"), command.Duration("cache-ttl"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			service := services.NewWorkflow(persistence)

			created, err := importDefinitions(ctx, service, definitions, os.Stdout)
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "Imported workflow definitions", "count", created)

			return nil
		},
	}
}

func importDefinitions(ctx context.Context, service *services.Workflow, definitions []map[string]any, out io.Writer) (int, error) {
	invalid := validateDefinitions(service, definitions, out)
	if invalid > 0 {
		return 0, fmt.Errorf("%w: %d of %d", ErrInvalidDefinitions, invalid, len(definitions))
	}

	for i, definition := range definitions {
		workflow, err := service.Create(ctx, definition)
		if err != nil {
			return i, fmt.Errorf("failed to import definition %d: %w", i, err)
		}

		_, _ = fmt.Fprintf(out, "Created workflow %s (%s)\n", workflow.ID, workflow.TriggerEvent)
	}

	return len(definitions), nil
}
