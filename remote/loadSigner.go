package remote

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// loadSigner reads and parses an unencrypted private key file.
func loadSigner(path string) (ssh.Signer, error) {
	if path == "" {
		return nil, errors.New("private key path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ssh.ParsePrivateKey(b)
	if err == nil {
		return s, nil
	}
	var passphraseMissingError *ssh.PassphraseMissingError
	if errors.As(err, &passphraseMissingError) {
		return nil, fmt.Errorf("private key %s is encrypted; passphrase-protected keys are not supported", path)
	}
	return nil, err
}

// PublicKeyFromFile returns the public half of the private key stored at path.
func PublicKeyFromFile(privateKeyPath string) (ssh.PublicKey, error) {
	s, err := loadSigner(privateKeyPath)
	if err != nil {
		return nil, err
	}
	return s.PublicKey(), nil
}
