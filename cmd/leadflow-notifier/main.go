// Package main consumes notification and email events from the event bus and
// delivers them.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	_ = godotenv.Load()

	command := &cli.Command{
		Name:  "leadflow-notifier",
		Usage: "Deliver notifications and emails published by workflow runs",
		Flags: cmd.Flags(
			[]cli.Flag{
				&cli.StringFlag{
					Name:    "amqp-url",
					Usage:   "AMQP URL; notifications are logged when empty",
					Sources: cli.EnvVars("AMQP_URL"),
				},
				&cli.StringFlag{
					Name:    "smtp-host",
					Usage:   "SMTP host; emails are logged when empty",
					Sources: cli.EnvVars("SMTP_HOST"),
				},
				&cli.IntFlag{
					Name:    "smtp-port",
					Value:   587,
					Sources: cli.EnvVars("SMTP_PORT"),
				},
				&cli.StringFlag{
					Name:    "smtp-user",
					Sources: cli.EnvVars("SMTP_USER"),
				},
				&cli.StringFlag{
					Name:    "smtp-password",
					Sources: cli.EnvVars("SMTP_PASSWORD"),
				},
				&cli.StringFlag{
					Name:    "mail-from",
					Value:   "noreply@leadflow.local",
					Sources: cli.EnvVars("MAIL_FROM"),
				},
			},
			cmd.EventBusFlags(),
			cmd.LogFlags(),
		),
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
