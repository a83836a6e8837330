package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "minimalist",
	Short: "Push files, pull files and run commands on a host over SSH",
	Long: "Connects to a host over SSH with a private key, copies file contents to and from it with SCP, " +
		"and runs shell command batches capturing their combined output.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if errConfig != nil {
			return fmt.Errorf("failed to read config file: %w", errConfig)
		}
		logger = newLogger(cmd.ErrOrStderr(), cfgVerbose)
		return nil
	},
}
