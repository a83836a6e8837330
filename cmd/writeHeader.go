package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// writeHeader writes the report metadata of a text report
func writeHeader(w io.Writer, r *yamlReport) error {
	bw := bufio.NewWriter(w)
	_, _ = fmt.Fprintf(bw, "Name: %s\n", r.Name)
	_, _ = fmt.Fprintf(bw, "Description: %s\n", r.Description)
	_, _ = fmt.Fprintf(bw, "Run ID: %s\n", r.RunID)
	_, _ = fmt.Fprintf(bw, "Target: %s\n", r.Target)
	_, _ = fmt.Fprintf(bw, "Generated: %s\n", r.Generated)
	_, _ = fmt.Fprintf(bw, "File Count: %d\n", len(r.Files))
	_, _ = fmt.Fprintf(bw, "Command Count: %d\n", len(r.Results))
	for _, f := range r.Files {
		if f.Error != "" {
			_, _ = fmt.Fprintf(bw, "File: %s (%d bytes) Error: %s\n", f.Path, f.Bytes, f.Error)
			continue
		}
		_, _ = fmt.Fprintf(bw, "File: %s (%d bytes)\n", f.Path, f.Bytes)
	}
	_, _ = fmt.Fprintln(bw, strings.Repeat("=", 80))
	return bw.Flush()
}
