package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reportforge/internal/config"
	"reportforge/internal/logger"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reportforge",
		Short: "Reportforge plans structured reports from a single topic prompt.",
		Long: `Reportforge turns a natural-language topic into a validated report
blueprint: it optionally gathers live web evidence, asks a generative model
for a structured section plan, validates the result, and emits a render-ready
JSON payload.

Examples:
  reportforge report "Electric vehicle batteries" --pages 12 --research
  reportforge research "Electric vehicle batteries" --breadth 4 --depth 2`,
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.reportforge.yaml)")

	rootCmd.AddCommand(NewReportCmd())
	rootCmd.AddCommand(NewResearchCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if cfg.App.Debug {
		level = "debug"
	}
	logger.Init(level)
}
