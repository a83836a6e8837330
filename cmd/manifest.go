package cmd

// manifest models the YAML schema consumed by the run subcommand: report
// metadata, optional connection defaults, files to push and commands to run.
type manifest struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	SSHHost     sshHost        `yaml:"ssh_host,omitempty"`
	Files       []fileEntry    `yaml:"files,omitempty"`
	Commands    []commandEntry `yaml:"commands"`
}

// sshHost describes connection details used when not provided via CLI
// flags. CLI flags take precedence over these defaults when set.
type sshHost struct {
	IP   string `yaml:"ip"`
	User string `yaml:"user"`
	Port uint16 `yaml:"port,omitempty"`
	Key  string `yaml:"key,omitempty"`
}

// fileEntry is a file pushed before the commands run. Exactly one of Content
// and From is set; From names a local file.
type fileEntry struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content,omitempty"`
	From    string `yaml:"from,omitempty"`
}
