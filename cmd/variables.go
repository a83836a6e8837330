package cmd

import (
	"errors"
	"time"

	"github.com/go-logr/logr"
)

// Version is the CLI version string injected at build time via -ldflags.
var Version = "0.1.0"

// errAdminUser signals that privileged accounts must not be used for
// automation.
var errAdminUser = errors.New("admin user account cannot be used")

var (
	// Global configuration populated by flags, environment variables and the
	// optional config file.
	cfgConfigFile      string
	cfgHost            string
	cfgPort            uint16
	cfgUser            string
	cfgKeyPath         string
	cfgKnownHosts      string
	cfgHostKeyPath     string
	cfgStrictHost      bool
	cfgConnTimeout     time.Duration
	cfgTimeout         time.Duration
	cfgTransferTimeout time.Duration
	cfgVerbose         bool
	cfgManifest        string
	cfgOutPath         string
	cfgEC2InstanceID   string
	cfgEC2Region       string
	cfgEC2Zone         string

	// Subcommand flags.
	cfgFormat            string
	cfgNoop              bool
	cfgPutFrom           string
	cfgPutContent        string
	cfgExitStatus        bool
	cfgInstallPubKeyPath string
	cfgAuthorizedKeys    string
)

// errConfig holds a config file load failure from cobra.OnInitialize, which
// cannot return errors itself.
var errConfig error

// logger is built in PersistentPreRunE once flags are parsed.
var logger = logr.Discard()

// Allow tests to stub session establishment and EC2 key pushes.
var (
	establishFunc    = establish
	newKeyPusherFunc = newKeyPusher
)
