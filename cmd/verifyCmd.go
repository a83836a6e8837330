package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate a manifest YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgManifest == "" {
			return errors.New("--manifest is required (path to YAML)")
		}
		mf, err := loadManifest(cfgManifest)
		if err != nil {
			return fmt.Errorf("invalid manifest: %w", err)
		}
		// Local sources must exist now rather than fail midway through a run.
		for i, f := range mf.Files {
			if f.From == "" {
				continue
			}
			if _, err := os.Stat(f.From); err != nil {
				return fmt.Errorf("invalid manifest: files[%d].from: %w", i, err)
			}
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Manifest OK")
		return nil
	},
}
