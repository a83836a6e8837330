package cmd

import (
	"errors"
	"fmt"
	"os"
)

// exitStatusError carries a remote exit status that the process should exit
// with (exec --exit-status).
type exitStatusError struct {
	code int
}

func (e exitStatusError) Error() string {
	return fmt.Sprintf("remote command exited with status %d", e.code)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var es exitStatusError
		if errors.As(err, &es) {
			exitFunc(es.code)
			return
		}
		if errors.Is(err, errAdminUser) {
			// Admin account error prints to stdout and exits with code 1
			_, _ = fmt.Fprintln(os.Stdout, err.Error())
			exitFunc(1)
			return
		}
		_, _ = fmt.Fprintln(os.Stderr, err)
		exitFunc(1)
		return
	}
}
