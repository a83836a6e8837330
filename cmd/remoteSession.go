package cmd

import (
	"context"
	"net"

	"github.com/go-logr/logr"
	"golang.org/x/crypto/ssh"

	"github.com/rogerwq/minimalist/internal/eic"
	"github.com/rogerwq/minimalist/remote"
)

// remoteSession is the subset of *remote.Session used by the subcommands.
type remoteSession interface {
	WriteFile(ctx context.Context, content, remotePath string) error
	ReadFile(ctx context.Context, remotePath string) (string, error)
	RunCommands(ctx context.Context, commands []string) (string, error)
	RunCommandsWithStatus(ctx context.Context, commands []string) (*remote.CommandResult, error)
	Close() error
}

// keyPusher is the subset of *eic.KeyPusher used before connecting.
type keyPusher interface {
	Push(ctx context.Context, instanceID, osUser string, key ssh.PublicKey, availabilityZone string) error
}

func establish(ctx context.Context, ip net.IP, port uint16, user, keyPath string, opts ...remote.Option) (remoteSession, error) {
	s, err := remote.Establish(ctx, ip, port, user, keyPath, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newKeyPusher(ctx context.Context, region string, log logr.Logger) (keyPusher, error) {
	p, err := eic.NewFromConfig(ctx, region, log)
	if err != nil {
		return nil, err
	}
	return p, nil
}
