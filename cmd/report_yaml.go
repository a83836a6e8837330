package cmd

import (
	"bufio"
	"bytes"
	"io"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// yamlReport is the top-level structure serialized by the run subcommand:
// metadata, the file pushes and the per-command results.
type yamlReport struct {
	RunID       string           `yaml:"run_id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Generated   string           `yaml:"generated"`
	Target      string           `yaml:"target"`
	Files       []yamlFileResult `yaml:"files,omitempty"`
	Results     []yamlCmdResult  `yaml:"results,omitempty"`
}

// yamlFileResult records the outcome of a single file push.
type yamlFileResult struct {
	Path  string `yaml:"path"`
	Bytes int    `yaml:"bytes"`
	Error string `yaml:"error,omitempty"`
}

// yamlCmdResult records the outcome of a single command execution.
type yamlCmdResult struct {
	Title    string `yaml:"title,omitempty"`
	Command  string `yaml:"command"`
	Shell    string `yaml:"shell,omitempty"`
	Timeout  string `yaml:"timeout,omitempty"`
	ExitCode int    `yaml:"exit_code"`
	Error    string `yaml:"error,omitempty"`
	Output   string `yaml:"output"`
}

// newYAMLReport constructs a report seeded with manifest metadata, a fresh
// run id and a generated timestamp.
func newYAMLReport(mf *manifest, target string) *yamlReport {
	return &yamlReport{
		RunID:       uuid.NewString(),
		Name:        mf.Name,
		Description: mf.Description,
		Generated:   time.Now().Format(time.RFC3339),
		Target:      target,
	}
}

func (r *yamlReport) addFile(res yamlFileResult) {
	r.Files = append(r.Files, res)
}

func (r *yamlReport) addResult(res yamlCmdResult) {
	r.Results = append(r.Results, res)
}

// failures counts file pushes and commands that returned an error.
func (r *yamlReport) failures() int {
	n := 0
	for _, f := range r.Files {
		if f.Error != "" {
			n++
		}
	}
	for _, c := range r.Results {
		if c.Error != "" {
			n++
		}
	}
	return n
}

// writeYAMLReport serializes the report to YAML with indentation and writes to
// the provided writer in a buffered manner.
func writeYAMLReport(w io.Writer, r *yamlReport) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		_ = enc.Close()
		return err
	}
	_ = enc.Close()
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(buf.Bytes()); err != nil {
		return err
	}
	return bw.Flush()
}
