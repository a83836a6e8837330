// Package sshserv is a small SSH server for tests and local development.
//
// It authenticates clients by public key (or not at all when no keys are
// configured), runs exec requests through a local shell, and answers the SCP
// sink (-t) and source (-f) protocols against the local filesystem. Remote
// paths are used as given, so tests should pass absolute temporary paths.
package sshserv

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"sync"

	"golang.org/x/crypto/ssh"
)

// Server is a running test SSH server.
type Server struct {
	ln       net.Listener
	cfg      *ssh.ServerConfig
	hostKey  ssh.PublicKey
	shell    string
	keys     []ssh.PublicKey
	password string

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	done  chan struct{}
}

// Option configures Start.
type Option func(*Server)

// WithAuthorizedKeys restricts login to the given public keys. Without it the
// server accepts any client with no authentication.
func WithAuthorizedKeys(keys ...ssh.PublicKey) Option {
	return func(s *Server) {
		s.keys = append(s.keys, keys...)
	}
}

// WithPassword enables password authentication with the given password for
// any user. Public key authentication is only offered when keys are also
// configured.
func WithPassword(password string) Option {
	return func(s *Server) {
		s.password = password
	}
}

// WithShell sets the program used to run exec requests as "<shell> -c cmd".
func WithShell(path string) Option {
	return func(s *Server) {
		s.shell = path
	}
}

// Start launches a server listening on listenAddr (e.g. 127.0.0.1:0).
func Start(listenAddr string, opts ...Option) (*Server, error) {
	s := &Server{
		shell: "/bin/sh",
		conns: map[net.Conn]struct{}{},
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("host key signer: %w", err)
	}
	s.hostKey = signer.PublicKey()

	s.cfg = &ssh.ServerConfig{NoClientAuth: len(s.keys) == 0 && s.password == ""}
	if len(s.keys) > 0 {
		s.cfg.PublicKeyCallback = s.checkKey
	}
	if s.password != "" {
		s.cfg.PasswordCallback = s.checkPassword
	}
	s.cfg.AddHostKey(signer)

	s.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, err
	}
	go s.serve()
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// HostKey returns the server's public host key.
func (s *Server) HostKey() ssh.PublicKey {
	return s.hostKey
}

// Close stops accepting and drops every open connection.
func (s *Server) Close() {
	_ = s.ln.Close()
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
}

func (s *Server) checkKey(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
	for _, k := range s.keys {
		if bytes.Equal(k.Marshal(), key.Marshal()) {
			return &ssh.Permissions{}, nil
		}
	}
	return nil, errors.New("public key not authorized")
}

func (s *Server) checkPassword(_ ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
	if string(password) == s.password {
		return &ssh.Permissions{}, nil
	}
	return nil, errors.New("wrong password")
}

func (s *Server) serve() {
	defer close(s.done)
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(raw net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, raw)
		s.mu.Unlock()
		_ = raw.Close()
	}()
	sc, chans, reqs, err := ssh.NewServerConn(raw, s.cfg)
	if err != nil {
		return
	}
	defer func() { _ = sc.Close() }()
	go ssh.DiscardRequests(reqs)
	for nc := range chans {
		if nc.ChannelType() != "session" {
			_ = nc.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		ch, in, err := nc.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(ch, in)
	}
}
