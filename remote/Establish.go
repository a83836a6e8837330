package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// Establish connects to ip:port, performs the SSH handshake and authenticates
// username with the private key stored at privateKeyPath. The key file is only
// read once the server asks for public key authentication, so a missing or
// malformed key is reported as ErrAuth.
//
// On failure the TCP connection is closed and the returned *Error carries the
// stage that failed: ErrConnect, ErrSessionNew, ErrHandshake or ErrAuth.
func Establish(ctx context.Context, ip net.IP, port uint16, username, privateKeyPath string, opts ...Option) (*Session, error) {
	c := newConfig(opts)
	addr := net.JoinHostPort(ip.String(), strconv.Itoa(int(port)))
	log := c.log.WithValues("addr", addr, "user", username)

	if ip == nil {
		return nil, &Error{Kind: ErrConnect, Addr: addr, Err: errors.New("no IP address given")}
	}

	d := net.Dialer{Timeout: c.connectTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &Error{Kind: ErrConnect, Addr: addr, Err: err}
	}
	log.V(1).Info("tcp connected")

	hostKeyCB, err := hostKeyCallback(c)
	if err != nil {
		_ = conn.Close()
		return nil, &Error{Kind: ErrSessionNew, Addr: addr, Err: err}
	}

	var (
		authAttempted bool
		keyErr        error
	)
	clientCfg := &ssh.ClientConfig{
		User: username,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeysCallback(func() ([]ssh.Signer, error) {
				authAttempted = true
				signer, err := loadSigner(privateKeyPath)
				if err != nil {
					keyErr = err
					return nil, err
				}
				return []ssh.Signer{signer}, nil
			}),
		},
		HostKeyCallback: hostKeyCB,
		Timeout:         c.connectTimeout,
	}

	if c.connectTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.connectTimeout))
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	sc, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if !stop() && err == nil {
		_ = sc.Close()
		err = ctx.Err()
	}
	if err != nil {
		_ = conn.Close()
		kind := setupFailureKind(ctx.Err(), authAttempted, err)
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		if kind == ErrAuth {
			if keyErr != nil {
				err = keyErr
			}
			log.V(1).Info("authentication failed", "keyPath", privateKeyPath, "error", err.Error())
			return nil, &Error{Kind: ErrAuth, Addr: addr, User: username, KeyPath: privateKeyPath, Err: err}
		}
		log.V(1).Info("handshake failed", "error", err.Error())
		return nil, &Error{Kind: ErrHandshake, Addr: addr, Err: err}
	}
	_ = conn.SetDeadline(time.Time{})

	s := newSession(ssh.NewClient(sc, chans, reqs), c, addr, username)
	if !s.Authenticated() {
		_ = s.Close()
		return nil, &Error{Kind: ErrAuth, Addr: addr, User: username, KeyPath: privateKeyPath, Err: ErrNotAuthenticated}
	}
	log.V(1).Info("session established", "serverVersion", string(sc.ServerVersion()))
	return s, nil
}

// setupFailureKind maps a failed SSH setup on an open TCP connection to its
// stage. Cancellation is ErrHandshake whatever step it interrupted. A server
// that offers no method this client supports fails authentication.
func setupFailureKind(ctxErr error, authAttempted bool, err error) error {
	switch {
	case ctxErr != nil:
		return ErrHandshake
	case authAttempted, strings.Contains(err.Error(), "no supported methods remain"):
		return ErrAuth
	default:
		return ErrHandshake
	}
}
