package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// getCmd downloads a remote text file to --out, or to stdout when --out is
// not set.
var getCmd = &cobra.Command{
	Use:   "get <remote-path>",
	Short: "Read a remote UTF-8 file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		remotePath := args[0]

		sess, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		content, err := sess.ReadFile(cmd.Context(), remotePath)
		if err != nil {
			return err
		}

		if cfgOutPath == "" {
			_, err := io.WriteString(cmd.OutOrStdout(), content)
			return err
		}
		if err := os.MkdirAll(filepath.Dir(cfgOutPath), 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
		if err := os.WriteFile(cfgOutPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		logger.Info("read remote file", "path", remotePath, "bytes", len(content), "out", cfgOutPath)
		return nil
	},
}
