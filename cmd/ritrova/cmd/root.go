// Package cmd provides the CLI commands for ritrova.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corsolab/ritrova/internal/config"
	"github.com/corsolab/ritrova/internal/logging"
)

var (
	configPath string
	debugMode  bool
)

// NewRootCmd creates the root command for the ritrova CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ritrova",
		Short: "Hybrid retrieval engine for Italian course material",
		Long: `Ritrova indexes course documents and serves hybrid search over them,
fusing BM25 keyword ranking with semantic vector retrieval.

Typical flow:
  ritrova ingest --course fisica-1 "materiale/**/*.txt"
  ritrova search --course fisica-1 "principio di inerzia"`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (YAML)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newInvalidateCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig loads the configuration and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	level := cfg.Log.Level
	if debugMode {
		level = "debug"
	}
	logging.SetupDefault(logging.Config{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	return cfg, nil
}
