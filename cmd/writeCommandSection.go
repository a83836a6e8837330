package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// writeCommandSection writes one command's results of a text report
func writeCommandSection(w io.Writer, res yamlCmdResult) error {
	bw := bufio.NewWriter(w)
	_, _ = fmt.Fprintln(bw, strings.Repeat("-", 80))
	if res.Title != "" {
		_, _ = fmt.Fprintf(bw, "Title: %s\n", res.Title)
	}
	_, _ = fmt.Fprintf(bw, "Command: %s\n", res.Command)
	if res.Shell != "" {
		_, _ = fmt.Fprintf(bw, "Shell: %s\n", res.Shell)
	}
	if res.Timeout != "" {
		_, _ = fmt.Fprintf(bw, "Timeout: %s\n", res.Timeout)
	}
	_, _ = fmt.Fprintf(bw, "Exit Code: %d\n", res.ExitCode)
	if res.Error != "" {
		_, _ = fmt.Fprintf(bw, "Error: %s\n", res.Error)
	}
	_, _ = fmt.Fprintln(bw, "Output:")
	_, _ = fmt.Fprintln(bw, "---8<---")
	_, _ = bw.WriteString(res.Output)
	if res.Output == "" || !strings.HasSuffix(res.Output, "\n") {
		_, _ = bw.WriteString("\n")
	}
	_, _ = fmt.Fprintln(bw, "---8<---")
	return bw.Flush()
}

// writeTextReport renders the report as a header followed by one section per
// command.
func writeTextReport(w io.Writer, r *yamlReport) error {
	if err := writeHeader(w, r); err != nil {
		return err
	}
	for _, res := range r.Results {
		if err := writeCommandSection(w, res); err != nil {
			return err
		}
	}
	return nil
}
