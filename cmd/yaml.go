package cmd

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlUnmarshal decodes manifest YAML, tagging errors with their origin.
func yamlUnmarshal(b []byte, out any) error {
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("yaml unmarshal: %w", err)
	}
	return nil
}

// UnmarshalYAML supports both "command" and "cmd" keys for flexibility
func (c *commandEntry) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		Command string   `yaml:"command"`
		Cmd     string   `yaml:"cmd"`
		Args    []string `yaml:"args"`
		Title   string   `yaml:"title"`
		Shell   string   `yaml:"shell"`
		Timeout string   `yaml:"timeout"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	c.Command = aux.Command
	if c.Command == "" {
		c.Command = aux.Cmd
	}
	c.Args = aux.Args
	c.Title = aux.Title
	c.Shell = aux.Shell
	c.Timeout = aux.Timeout
	return nil
}
