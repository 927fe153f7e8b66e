package sshtest

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Identity is a throwaway client key plus a known_hosts file trusting one host key.
type Identity struct {
	KeyPath        string
	KnownHostsPath string
	HostKey        ssh.PublicKey
}

func NewIdentity(t testing.TB, dir string, hosts ...string) Identity {
	t.Helper()
	return newIdentity(t, dir, nil, hosts)
}

// NewEncryptedIdentity is NewIdentity with the client key sealed by passphrase.
func NewEncryptedIdentity(t testing.TB, dir string, passphrase []byte, hosts ...string) Identity {
	t.Helper()
	return newIdentity(t, dir, passphrase, hosts)
}

func newIdentity(t testing.TB, dir string, passphrase []byte, hosts []string) Identity {
	t.Helper()

	_, clientKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate client key: %v", err)
	}
	var block *pem.Block
	if len(passphrase) > 0 {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(clientKey, "pkgctl-test", passphrase)
	} else {
		block, err = ssh.MarshalPrivateKey(clientKey, "pkgctl-test")
	}
	if err != nil {
		t.Fatalf("marshal client key: %v", err)
	}
	keyPath := filepath.Join(dir, "id_ed25519")
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write client key: %v", err)
	}

	hostPub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	hostKey, err := ssh.NewPublicKey(hostPub)
	if err != nil {
		t.Fatalf("wrap host key: %v", err)
	}
	knownHostsPath := filepath.Join(dir, "known_hosts")
	line := knownhosts.Line(hosts, hostKey) + "\n"
	if err := os.WriteFile(knownHostsPath, []byte(line), 0o600); err != nil {
		t.Fatalf("write known_hosts: %v", err)
	}

	return Identity{
		KeyPath:        keyPath,
		KnownHostsPath: knownHostsPath,
		HostKey:        hostKey,
	}
}
