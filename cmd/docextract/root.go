package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/common"
)

// app carries state shared by all commands once flags are parsed.
type app struct {
	configPath string
	debug      bool

	cfg    *common.Config
	logger *slog.Logger
	logOut io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{logOut: os.Stderr}
	opts := &runOptions{}

	root := &cobra.Command{
		Use:   "docextract",
		Short: "Extract and validate business data from PDF documents",
		Long: `Reads every PDF in the input directory, extracts invoice and contract
fields, normalizes and validates them, flags duplicates and writes the
records and a validation report as JSON, Excel and CSV.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, a, opts)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (.toml, .yaml or .yml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	addRunFlags(root, opts)

	root.AddCommand(newRunCmd(a), newTextCmd(a), newStoreCmd(a))
	return root
}

// setup loads configuration and installs the JSON logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := common.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.debug {
		cfg.Debug = true
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	a.cfg = cfg

	a.logger.Debug("config.loaded", "command", cmd.Name(), "path", a.configPath)
	return nil
}
