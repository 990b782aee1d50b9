// Package main runs the inactivity scan on a schedule or once.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/scheduler"
	"github.com/dukex/leadflow/pkg/workflow"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	_ = godotenv.Load()

	command := &cli.Command{
		Name:  "leadflow-scanner",
		Usage: "Fire no_activity_7_days for leads without recent activity",
		Flags: cmd.Flags(
			[]cli.Flag{
				&cli.StringFlag{
					Name:    "schedule",
					Usage:   "Cron expression for the scan",
					Value:   scheduler.DefaultSchedule,
					Sources: cli.EnvVars("INACTIVITY_SCHEDULE"),
				},
				&cli.DurationFlag{
					Name:    "inactivity-window",
					Usage:   "Idle time after which a lead counts as inactive",
					Value:   workflow.DefaultInactivityWindow,
					Sources: cli.EnvVars("INACTIVITY_WINDOW"),
				},
				&cli.BoolFlag{
					Name:  "once",
					Usage: "Run a single scan and exit",
				},
			},
			cmd.DatabaseFlags(),
			cmd.LogFlags(),
			cmd.EventBusFlags(),
			cmd.DeliveryFlags(),
			cmd.EngineFlags(),
		),
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
