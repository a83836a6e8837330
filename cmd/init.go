package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "MINIMALIST"

// boundFlags are the persistent flags that can also be set from the
// environment (MINIMALIST_<NAME>) or the config file.
var boundFlags = []string{
	"host", "port", "user", "key", "known-hosts", "host-key", "strict-host-key",
	"conn-timeout", "cmd-timeout", "transfer-timeout", "verbose",
	"manifest", "out", "ec2-instance-id", "ec2-region", "ec2-availability-zone",
}

// init configures the root command's persistent flags, binds them to
// environment variables via Viper, and registers all subcommands.
func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgConfigFile, "config", "", "Path to a YAML config file with flag defaults")
	pf.StringVarP(&cfgHost, "host", "H", "", "Target host (IP address or resolvable name)")
	pf.Uint16VarP(&cfgPort, "port", "p", 22, "Target SSH port")
	pf.StringVarP(&cfgUser, "user", "u", "", "SSH username")
	pf.StringVarP(&cfgKeyPath, "key", "i", "", "Path to SSH private key (PEM, OpenSSH; unencrypted)")
	pf.StringVar(&cfgKnownHosts, "known-hosts", filepath.Join(os.Getenv("HOME"), ".ssh", "known_hosts"), "Path to known_hosts file")
	pf.StringVar(&cfgHostKeyPath, "host-key", "", "Path to the expected server public host key (overrides known_hosts)")
	pf.BoolVar(&cfgStrictHost, "strict-host-key", true, "Require host key verification (disable to accept any host key)")
	pf.DurationVar(&cfgConnTimeout, "conn-timeout", 15*time.Second, "Connection and handshake timeout")
	pf.DurationVar(&cfgTimeout, "cmd-timeout", 0, "Per-command timeout (e.g., 30s). 0 disables")
	pf.DurationVar(&cfgTransferTimeout, "transfer-timeout", 0, "Per-transfer timeout. 0 disables")
	pf.BoolVarP(&cfgVerbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVarP(&cfgManifest, "manifest", "m", "", "Path to YAML manifest file")
	pf.StringVarP(&cfgOutPath, "out", "o", "", "Path to output file")
	pf.StringVar(&cfgEC2InstanceID, "ec2-instance-id", "", "Push the key's public half to this EC2 instance via EC2 Instance Connect before connecting")
	pf.StringVar(&cfgEC2Region, "ec2-region", "", "AWS region for EC2 Instance Connect")
	pf.StringVar(&cfgEC2Zone, "ec2-availability-zone", "", "Availability zone of the EC2 instance")

	for _, name := range boundFlags {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	cobra.OnInitialize(loadConfig)

	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(installCmd)
}

// loadConfig reads the optional config file and pulls environment and file
// overrides into the cfg* globals.
func loadConfig() {
	errConfig = nil
	if cfgConfigFile != "" {
		viper.SetConfigFile(cfgConfigFile)
		if err := viper.ReadInConfig(); err != nil {
			errConfig = err
			return
		}
	}

	if v := viper.GetString("host"); v != "" {
		cfgHost = v
	}
	if viper.IsSet("port") {
		if p := viper.GetUint("port"); p > 0 && p <= 65535 {
			cfgPort = uint16(p)
		}
	}
	if v := viper.GetString("user"); v != "" {
		cfgUser = v
	}
	if v := viper.GetString("key"); v != "" {
		cfgKeyPath = v
	}
	if v := viper.GetString("known-hosts"); v != "" {
		cfgKnownHosts = v
	}
	if v := viper.GetString("host-key"); v != "" {
		cfgHostKeyPath = v
	}
	if v := viper.GetString("manifest"); v != "" {
		cfgManifest = v
	}
	if v := viper.GetString("out"); v != "" {
		cfgOutPath = v
	}
	if v := viper.GetString("ec2-instance-id"); v != "" {
		cfgEC2InstanceID = v
	}
	if v := viper.GetString("ec2-region"); v != "" {
		cfgEC2Region = v
	}
	if v := viper.GetString("ec2-availability-zone"); v != "" {
		cfgEC2Zone = v
	}
	if v := viper.GetString("conn-timeout"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfgConnTimeout = d
		}
	}
	if v := viper.GetString("cmd-timeout"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfgTimeout = d
		}
	}
	if v := viper.GetString("transfer-timeout"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfgTransferTimeout = d
		}
	}
	// Booleans
	if viper.IsSet("strict-host-key") {
		cfgStrictHost = viper.GetBool("strict-host-key")
	}
	if viper.IsSet("verbose") {
		cfgVerbose = viper.GetBool("verbose")
	}
}
