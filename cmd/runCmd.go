package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rogerwq/minimalist/remote"
)

// runCmd executes a manifest: it pushes the listed files, runs each command
// in its own exec channel and writes a YAML (or text) report. With --noop it
// only prints the planned actions.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a manifest-driven run",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Require manifest and output path first, since manifest may provide defaults
		if cfgManifest == "" {
			return errors.New("--manifest is required (path to YAML)")
		}
		if cfgOutPath == "" && !cfgNoop {
			return errors.New("--out is required (path to output file)")
		}
		if cfgFormat != "yaml" && cfgFormat != "text" {
			return fmt.Errorf("--format must be yaml or text, got %q", cfgFormat)
		}

		mf, err := loadManifest(cfgManifest)
		if err != nil {
			return fmt.Errorf("failed to read manifest: %w", err)
		}
		applyManifestDefaults(mf, cmd.Flags().Changed("port") || viper.IsSet("port"))
		if err := validateTarget(); err != nil {
			return err
		}

		if cfgNoop {
			writePlan(cmd.OutOrStdout(), mf)
			return nil
		}

		// Prepare output file (create dirs if needed)
		if err := os.MkdirAll(filepath.Dir(cfgOutPath), 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
		outFile, err := os.Create(cfgOutPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = outFile.Close() }()

		ctx := cmd.Context()
		sess, err := connect(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = sess.Close() }()

		report := newYAMLReport(mf, net.JoinHostPort(cfgHost, strconv.Itoa(int(cfgPort))))

		for i, f := range mf.Files {
			logger.Info("Pushing file", "step", fmt.Sprintf("[%d/%d]", i+1, len(mf.Files)), "path", f.Path)
			content, err := f.content()
			res := yamlFileResult{Path: f.Path, Bytes: len(content)}
			if err == nil {
				err = sess.WriteFile(ctx, content, f.Path)
			}
			if err != nil {
				res.Error = err.Error()
				logger.Error(err, "file push failed", "path", f.Path)
			}
			report.addFile(res)
		}

		for i, c := range mf.Commands {
			logger.Info("Executing", "step", fmt.Sprintf("[%d/%d]", i+1, len(mf.Commands)), "command", c.line())
			res, runErr := runEntry(ctx, sess, c)

			// A dead session is re-established once so the remaining commands
			// still get a chance to run.
			if errors.Is(runErr, remote.ErrNotAuthenticated) {
				logger.Info("Session lost; reconnecting")
				_ = sess.Close()
				sess, err = connect(ctx)
				if err != nil {
					return fmt.Errorf("reconnect failed: %w", err)
				}
				res, runErr = runEntry(ctx, sess, c)
			}
			if runErr != nil {
				logger.Error(runErr, "command failed", "command", c.line())
			}
			report.addResult(res)
		}

		if cfgFormat == "text" {
			err = writeTextReport(outFile, report)
		} else {
			err = writeYAMLReport(outFile, report)
		}
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		logger.Info("Done", "out", cfgOutPath, "runID", report.RunID)
		if n := report.failures(); n > 0 {
			return fmt.Errorf("run completed with %d failures", n)
		}
		return nil
	},
}

// runEntry runs one manifest command under its timeout and converts the
// outcome into a report entry.
func runEntry(ctx context.Context, sess remoteSession, c commandEntry) (yamlCmdResult, error) {
	res := yamlCmdResult{
		Title:   strings.TrimSpace(c.Title),
		Command: c.line(),
		Shell:   c.Shell,
	}
	timeout := c.perCommandTimeout(cfgTimeout)
	if timeout > 0 {
		res.Timeout = timeout.String()
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	out, err := sess.RunCommandsWithStatus(ctx, []string{c.remoteLine()})
	if err != nil {
		res.ExitCode = -1
		res.Error = err.Error()
		return res, err
	}
	res.ExitCode = out.ExitStatus
	res.Output = out.Output
	return res, nil
}

// content returns the bytes to push for a manifest file entry.
func (f fileEntry) content() (string, error) {
	if f.From == "" {
		return f.Content, nil
	}
	b, err := os.ReadFile(f.From)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.From, err)
	}
	return string(b), nil
}

// writePlan prints what a run would do without connecting.
func writePlan(w io.Writer, mf *manifest) {
	_, _ = fmt.Fprintf(w, "# Planned actions for %s@%s:%d (%d files, %d commands)\n",
		cfgUser, cfgHost, cfgPort, len(mf.Files), len(mf.Commands))
	for _, f := range mf.Files {
		src := "inline"
		if f.From != "" {
			src = f.From
		}
		_, _ = fmt.Fprintf(w, "put %s <- %s\n", f.Path, src)
	}
	for _, c := range mf.Commands {
		_, _ = fmt.Fprintln(w, c.remoteLine())
	}
}

func init() {
	runCmd.Flags().StringVar(&cfgFormat, "format", "yaml", "Report format: yaml or text")
	runCmd.Flags().BoolVar(&cfgNoop, "noop", false, "Do not connect; print the planned actions")
}
