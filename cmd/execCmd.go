package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// execCmd runs its arguments as one command batch. Each argument is one
// command; they are joined with ";" on the remote side.
var execCmd = &cobra.Command{
	Use:   "exec -- <command> [command...]",
	Short: "Run a batch of shell commands and print their combined output",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		ctx := cmd.Context()
		if cfgTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfgTimeout)
			defer cancel()
		}
		res, err := sess.RunCommandsWithStatus(ctx, args)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(cmd.OutOrStdout(), res.Output); err != nil {
			return err
		}
		logger.V(1).Info("batch finished", "command", res.Command, "exitStatus", res.ExitStatus)
		if cfgExitStatus && res.ExitStatus != 0 {
			return exitStatusError{code: res.ExitStatus}
		}
		return nil
	},
}

func init() {
	execCmd.Flags().BoolVar(&cfgExitStatus, "exit-status", false, "Exit with the remote batch's exit status")
}
