// Package cli provides the command-line interface for keep-runner.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to keep-runner.yaml (default: ./keep-runner.yaml if present)",
		EnvVars: []string{"KEEP_RUNNER_CONFIG"},
	},
	&cli.StringFlag{
		Name:  "env-file",
		Usage: "Load environment variables from this file (default: ./.env if present)",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Also write the run log to stderr",
		EnvVars: []string{"KEEP_RUNNER_VERBOSE"},
	},
	&cli.StringFlag{
		Name:  "log-level",
		Usage: "Minimum log level (debug, info, warn, error)",
		Value: "debug",
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the keep-runner application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "keep-runner",
		Usage:   "End-to-end scenario runner for a notes web application",
		Version: Version,
		Description: `keep-runner drives a browser through YAML scenarios that create,
pin, archive, label and delete notes, and writes a JSON report.

Examples:
  keep-runner run scenarios/
  keep-runner run pin.yaml --headless -e PREFIX=smoke
  keep-runner validate scenarios/`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			validateCommand,
			profilesCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
