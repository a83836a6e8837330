package cmd

import (
	"fmt"
	"strings"
)

// line builds the fully rendered command line by appending arguments with
// safe shell quoting. It does not include the shell wrapper.
func (c *commandEntry) line() string {
	if len(c.Args) == 0 {
		return c.Command
	}
	// Quote args to be safe for remote shell
	quoted := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		quoted = append(quoted, shellQuote(a))
	}
	return strings.TrimSpace(c.Command + " " + strings.Join(quoted, " "))
}

// remoteLine is what is sent to the host: line() wrapped in "<shell> -c"
// when a shell is configured.
func (c *commandEntry) remoteLine() string {
	if strings.TrimSpace(c.Shell) == "" {
		return c.line()
	}
	cmdArg := shellQuote(c.line())
	if !strings.HasPrefix(cmdArg, "'") || !strings.HasSuffix(cmdArg, "'") {
		cmdArg = "'" + cmdArg + "'"
	}
	return fmt.Sprintf("%s -c %s", shellQuote(c.Shell), cmdArg)
}
