package cmd

type commandEntry struct {
	// "command" is preferred; "cmd" also accepted during unmarshal
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	// Optional display title for the report section
	Title string `yaml:"title,omitempty"`
	// Optional shell to run the line with, as "<shell> -c <line>"
	Shell string `yaml:"shell,omitempty"`
	// Optional per-command timeout like "30s"; overrides global if set
	Timeout string `yaml:"timeout,omitempty"`
}
