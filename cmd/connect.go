package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/rogerwq/minimalist/remote"
)

// validateTarget checks the connection settings shared by every subcommand
// that talks to a host.
func validateTarget() error {
	if strings.TrimSpace(cfgHost) == "" {
		return errors.New("--host is required (IP address or host name)")
	}
	if strings.TrimSpace(cfgUser) == "" {
		return errors.New("--user is required for SSH authentication")
	}
	if adminUser := strings.TrimSpace(cfgUser); adminUser == "admin" || adminUser == "root" {
		return errAdminUser
	}
	if strings.TrimSpace(cfgKeyPath) == "" {
		return errors.New("--key is required (path to SSH private key)")
	}
	return nil
}

// resolveHost returns host as an IP, resolving names and preferring IPv4.
func resolveHost(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("resolve %s: no addresses", host)
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}

// sessionOptions maps the host key and timeout flags onto remote options.
func sessionOptions() ([]remote.Option, error) {
	opts := []remote.Option{
		remote.WithLogger(logger),
		remote.WithConnectTimeout(cfgConnTimeout),
		remote.WithTransferTimeout(cfgTransferTimeout),
		remote.WithKnownHosts(cfgKnownHosts),
	}
	switch {
	case cfgHostKeyPath != "":
		b, err := os.ReadFile(cfgHostKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read host key: %w", err)
		}
		key, _, _, _, err := ssh.ParseAuthorizedKey(b)
		if err != nil {
			return nil, fmt.Errorf("parse host key %s: %w", cfgHostKeyPath, err)
		}
		opts = append(opts, remote.WithHostKey(key))
	case !cfgStrictHost:
		opts = append(opts, remote.WithInsecureIgnoreHostKey())
	}
	return opts, nil
}

// pushEC2Key authorizes the key's public half on the configured EC2 instance.
func pushEC2Key(ctx context.Context) error {
	pub, err := remote.PublicKeyFromFile(cfgKeyPath)
	if err != nil {
		return fmt.Errorf("load public key for EC2 Instance Connect: %w", err)
	}
	pusher, err := newKeyPusherFunc(ctx, cfgEC2Region, logger)
	if err != nil {
		return err
	}
	return pusher.Push(ctx, cfgEC2InstanceID, cfgUser, pub, cfgEC2Zone)
}

// connect validates the target, optionally pushes the key through EC2
// Instance Connect, and establishes a session.
func connect(ctx context.Context) (remoteSession, error) {
	if err := validateTarget(); err != nil {
		return nil, err
	}
	ip, err := resolveHost(ctx, cfgHost)
	if err != nil {
		return nil, err
	}
	if cfgEC2InstanceID != "" {
		if err := pushEC2Key(ctx); err != nil {
			return nil, err
		}
	}
	opts, err := sessionOptions()
	if err != nil {
		return nil, err
	}
	logger.V(1).Info("connecting", "host", cfgHost, "ip", ip.String(), "port", cfgPort, "user", cfgUser)
	sess, err := establishFunc(ctx, ip, cfgPort, cfgUser, cfgKeyPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("ssh connection failed: %w", err)
	}
	return sess, nil
}
