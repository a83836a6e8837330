package remote

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/crypto/ssh"
)

// Session is an authenticated SSH connection to one host. It is owned by the
// caller and is not safe for concurrent operations.
type Session struct {
	client          *ssh.Client
	addr            string
	user            string
	log             logr.Logger
	transferTimeout time.Duration
	scpBinary       string

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
	gone      chan struct{}
}

func newSession(client *ssh.Client, c *config, addr, user string) *Session {
	s := &Session{
		client:          client,
		addr:            addr,
		user:            user,
		log:             c.log.WithValues("addr", addr, "user", user),
		transferTimeout: c.transferTimeout,
		scpBinary:       c.scpBinary,
		closed:          make(chan struct{}),
		gone:            make(chan struct{}),
	}
	go func() {
		err := client.Wait()
		s.log.V(1).Info("transport closed", "reason", err)
		close(s.gone)
	}()
	return s
}

// Authenticated reports whether the session completed authentication and is
// still usable: it has not been closed and its transport is still up.
func (s *Session) Authenticated() bool {
	if s == nil || s.client == nil {
		return false
	}
	select {
	case <-s.closed:
		return false
	case <-s.gone:
		return false
	default:
		return true
	}
}

// RemoteAddr returns the host:port the session is connected to.
func (s *Session) RemoteAddr() string {
	return s.addr
}

// User returns the authenticated user name.
func (s *Session) User() string {
	return s.user
}

// Close tears down the connection. It is safe to call more than once.
func (s *Session) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		close(s.closed)
		if err := s.client.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.closeErr = err
		}
	})
	return s.closeErr
}

// usable returns ErrNotAuthenticated when the session cannot carry a channel.
func (s *Session) usable() error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	return nil
}
