// Package cli holds the auditctl commands.
package cli

import (
	"fmt"
	"os"

	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/config"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "auditctl",
	Short: "Operate the Auditalex audit store",
	Long: `auditctl runs maintenance tasks against the audit store, scores and
renders audit documents offline, and edits audits through the local draft
store with background sync.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cfgFile != "" {
			if err := os.Setenv("CONFIG_PATH", cfgFile); err != nil {
				return err
			}
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		l, err := logging.NewLogger(level, "console")
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (overrides CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
