package remote

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/rogerwq/minimalist/tools/sshserv"
)

// newKeyFile generates an ed25519 key, writes it in OpenSSH format and
// returns its public half and path.
func newKeyFile(t *testing.T) (ssh.PublicKey, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatal(err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	return sshPub, path
}

// startServer runs an in-process SSH server that only accepts the given keys.
func startServer(t *testing.T, keys ...ssh.PublicKey) *sshserv.Server {
	t.Helper()
	srv, err := sshserv.Start("127.0.0.1:0", sshserv.WithAuthorizedKeys(keys...))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(srv.Close)
	return srv
}

func hostPort(t *testing.T, addr string) (net.IP, uint16) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		t.Fatal(err)
	}
	return net.ParseIP(host), uint16(port)
}

// connect starts a server and returns an authenticated session against it.
func connect(t *testing.T) *Session {
	t.Helper()
	pub, keyPath := newKeyFile(t)
	srv := startServer(t, pub)
	ip, port := hostPort(t, srv.Addr())
	s, err := Establish(context.Background(), ip, port, "tester", keyPath, WithHostKey(srv.HostKey()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
