package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dukerupert/mediaguard/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	config.LoadDotEnv()
	if err := newRootCmd(os.Stdout, os.Stderr, os.Getenv).Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the shared state of every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

func (a *app) loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(a.getenv)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, cfg.NewLogger(a.stderr), nil
}

func newRootCmd(stdout, stderr io.Writer, getenv func(string) string) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, getenv: getenv}

	root := &cobra.Command{
		Use:           "mediaguardctl",
		Short:         "mediaguardctl inspects, validates and stores media files",
		Long:          `A terminal tool for checking uploads against the media rules and managing stored objects.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(
		newSniffCmd(a),
		newValidateCmd(a),
		newUploadCmd(a),
		newDeleteCmd(a),
	)
	return root
}
