package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// loadManifest reads and validates the YAML manifest, ensuring the presence of
// required top-level fields (name, description), that every file entry names
// a path and a single content source, and that every command is non-empty.
func loadManifest(path string) (*manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mf := &manifest{}
	if err := yamlUnmarshal(b, mf); err != nil {
		return nil, err
	}
	if mf.Name == "" {
		return nil, errors.New("manifest.name is required")
	}
	if mf.Description == "" {
		return nil, errors.New("manifest.description is required")
	}
	for i, f := range mf.Files {
		if strings.TrimSpace(f.Path) == "" {
			return nil, fmt.Errorf("files[%d].path is required", i)
		}
		if f.Content != "" && f.From != "" {
			return nil, fmt.Errorf("files[%d]: content and from are mutually exclusive", i)
		}
	}
	for i, c := range mf.Commands {
		if strings.TrimSpace(c.Command) == "" {
			return nil, fmt.Errorf("commands[%d].command is required", i)
		}
		if c.Timeout != "" {
			if _, err := parseTimeout(c.Timeout); err != nil {
				return nil, fmt.Errorf("commands[%d].timeout: %w", i, err)
			}
		}
	}
	return mf, nil
}

// applyManifestDefaults fills connection settings the CLI left empty.
func applyManifestDefaults(mf *manifest, portChanged bool) {
	if cfgHost == "" {
		cfgHost = strings.TrimSpace(mf.SSHHost.IP)
	}
	if cfgUser == "" {
		cfgUser = strings.TrimSpace(mf.SSHHost.User)
	}
	if cfgKeyPath == "" {
		cfgKeyPath = strings.TrimSpace(mf.SSHHost.Key)
	}
	if !portChanged && mf.SSHHost.Port != 0 {
		cfgPort = mf.SSHHost.Port
	}
}
