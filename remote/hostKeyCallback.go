package remote

import (
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// hostKeyCallback picks the host key policy: a pinned key, then insecure if
// explicitly asked for, otherwise strict known_hosts checking.
func hostKeyCallback(c *config) (ssh.HostKeyCallback, error) {
	if c.hostKey != nil {
		return ssh.FixedHostKey(c.hostKey), nil
	}
	if c.insecureHostKey {
		c.log.Info("WARNING: host key verification is disabled")
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if _, err := os.Stat(c.knownHostsPath); err != nil {
		return nil, fmt.Errorf("known_hosts file not found at %s and host key verification is enabled", c.knownHostsPath)
	}
	cb, err := knownhosts.New(c.knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("known_hosts: %w", err)
	}
	return cb, nil
}
