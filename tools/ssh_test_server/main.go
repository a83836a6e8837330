package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	srv "github.com/rogerwq/minimalist/tools/sshserv"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/ssh"
)

func main() {
	listen := pflag.String("listen", "127.0.0.1:20222", "address to listen on")
	authorized := pflag.String("authorized-keys", "", "authorized_keys file; empty accepts any client")
	pflag.Parse()

	var opts []srv.Option
	if *authorized != "" {
		keys, err := readAuthorizedKeys(*authorized)
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "failed to read authorized keys:", err)
			os.Exit(1)
		}
		opts = append(opts, srv.WithAuthorizedKeys(keys...))
	}

	s, err := srv.Start(*listen, opts...)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "failed to start test ssh server:", err)
		os.Exit(1)
	}
	defer s.Close()
	_, _ = fmt.Fprintf(os.Stderr, "test ssh server listening on %s\n", s.Addr())
	_, _ = fmt.Fprintf(os.Stderr, "host key: %s", ssh.MarshalAuthorizedKey(s.HostKey()))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}

func readAuthorizedKeys(path string) ([]ssh.PublicKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var keys []ssh.PublicKey
	for len(b) > 0 {
		key, _, _, rest, err := ssh.ParseAuthorizedKey(b)
		if err != nil {
			break
		}
		keys = append(keys, key)
		b = rest
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no keys found in %s", path)
	}
	return keys, nil
}
