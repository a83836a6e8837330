package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// putCmd uploads content to a remote path. The content comes from --content,
// from the local file named by --from, or from stdin.
var putCmd = &cobra.Command{
	Use:   "put <remote-path>",
	Short: "Write content to a remote file (mode 0644)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		remotePath := args[0]
		if cfgPutFrom != "" && cmd.Flags().Changed("content") {
			return errors.New("--from and --content are mutually exclusive")
		}

		var content string
		switch {
		case cmd.Flags().Changed("content"):
			content = cfgPutContent
		case cfgPutFrom != "":
			b, err := os.ReadFile(cfgPutFrom)
			if err != nil {
				return fmt.Errorf("read %s: %w", cfgPutFrom, err)
			}
			content = string(b)
		default:
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			content = string(b)
		}

		sess, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		if err := sess.WriteFile(cmd.Context(), content, remotePath); err != nil {
			return err
		}
		logger.Info("wrote remote file", "path", remotePath, "bytes", len(content))
		return nil
	},
}

func init() {
	putCmd.Flags().StringVar(&cfgPutFrom, "from", "", "Local file whose content is uploaded")
	putCmd.Flags().StringVar(&cfgPutContent, "content", "", "Literal content to upload")
}
