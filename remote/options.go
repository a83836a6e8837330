package remote

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/crypto/ssh"
)

// Option configures Establish.
type Option func(*config)

type config struct {
	log             logr.Logger
	knownHostsPath  string
	hostKey         ssh.PublicKey
	insecureHostKey bool
	connectTimeout  time.Duration
	transferTimeout time.Duration
	scpBinary       string
}

func newConfig(opts []Option) *config {
	c := &config{
		log:            logr.Discard(),
		knownHostsPath: filepath.Join(os.Getenv("HOME"), ".ssh", "known_hosts"),
		scpBinary:      "scp",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithLogger sets the logger used for debug output.
func WithLogger(log logr.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithKnownHosts verifies the server host key against the given known_hosts
// file instead of ~/.ssh/known_hosts.
func WithKnownHosts(path string) Option {
	return func(c *config) {
		c.knownHostsPath = path
	}
}

// WithHostKey pins the server host key. It takes precedence over known_hosts.
func WithHostKey(key ssh.PublicKey) Option {
	return func(c *config) {
		c.hostKey = key
	}
}

// WithInsecureIgnoreHostKey accepts any server host key.
func WithInsecureIgnoreHostKey() Option {
	return func(c *config) {
		c.insecureHostKey = true
	}
}

// WithConnectTimeout bounds the TCP connect and, separately, the handshake
// plus authentication. Zero means no timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *config) {
		c.connectTimeout = d
	}
}

// WithTransferTimeout bounds each SCP transfer. Zero means no timeout.
func WithTransferTimeout(d time.Duration) Option {
	return func(c *config) {
		c.transferTimeout = d
	}
}

// WithSCPBinary sets the scp program invoked on the remote host.
func WithSCPBinary(path string) Option {
	return func(c *config) {
		if path != "" {
			c.scpBinary = path
		}
	}
}
