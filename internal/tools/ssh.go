package tools

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultSSHPort = "22"

// ExitTransportFailure mirrors ssh(1): the remote command never ran.
const ExitTransportFailure = 255

// SSHRunner executes commands on a remote host, one session per command.
type SSHRunner struct {
	Host                        string
	Port                        string
	User                        string
	KeyPath                     string
	Passphrase                  []byte
	KnownHostsPath              string
	InsecureSkipHostKeyChecking bool
	Timeout                     time.Duration
}

func (r SSHRunner) Run(name string, args ...string) (Result, error) {
	client, err := r.connect()
	if err != nil {
		return Result{ExitCode: ExitTransportFailure}, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return Result{ExitCode: ExitTransportFailure}, fmt.Errorf("open ssh session on %s: %w", r.Target(), err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	err = session.Run(remoteCommand(name, args))
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	var exitErr *ssh.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitStatus()
	default:
		res.ExitCode = ExitTransportFailure
	}
	return res, err
}

// Target renders user@host:port for logs.
func (r SSHRunner) Target() string {
	addr, err := r.hostPort()
	if err != nil {
		return strings.TrimSpace(r.Host)
	}
	if r.User == "" {
		return addr
	}
	return r.User + "@" + addr
}

// remoteCommand quotes every word so the remote shell sees the same argv.
func remoteCommand(name string, args []string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, quote(name))
	for _, arg := range args {
		words = append(words, quote(arg))
	}
	return strings.Join(words, " ")
}

func quote(word string) string {
	return "'" + strings.ReplaceAll(word, "'", `'"'"'`) + "'"
}

func (r SSHRunner) connect() (*ssh.Client, error) {
	addr, err := r.hostPort()
	if err != nil {
		return nil, err
	}
	config, err := r.clientConfig()
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: r.Timeout}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	return ssh.NewClient(clientConn, chans, reqs), nil
}

func (r SSHRunner) hostPort() (string, error) {
	host := strings.TrimSpace(r.Host)
	switch {
	case host == "":
		return "", fmt.Errorf("remote host is required")
	case r.Port != "":
		return net.JoinHostPort(host, r.Port), nil
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host, nil
	}
	return net.JoinHostPort(host, defaultSSHPort), nil
}

func (r SSHRunner) clientConfig() (*ssh.ClientConfig, error) {
	if r.User == "" {
		return nil, fmt.Errorf("remote user is required")
	}
	signer, err := r.loadKey()
	if err != nil {
		return nil, err
	}
	hostKeys := ssh.InsecureIgnoreHostKey()
	if !r.InsecureSkipHostKeyChecking {
		if hostKeys, err = r.trustedHostKeys(); err != nil {
			return nil, err
		}
	}
	return &ssh.ClientConfig{
		User:            r.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeys,
		Timeout:         r.Timeout,
	}, nil
}

func (r SSHRunner) loadKey() (ssh.Signer, error) {
	if r.KeyPath == "" {
		return nil, fmt.Errorf("remote key path is required")
	}
	pemBytes, err := os.ReadFile(r.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w", err)
	}
	if len(r.Passphrase) > 0 {
		return ssh.ParsePrivateKeyWithPassphrase(pemBytes, r.Passphrase)
	}
	signer, err := ssh.ParsePrivateKey(pemBytes)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		return nil, fmt.Errorf("ssh key %s is encrypted (set remote.passphrase_env): %w", r.KeyPath, err)
	}
	return signer, err
}

// trustedHostKeys checks host keys against KnownHostsPath, or the user's
// ~/.ssh/known_hosts when unset.
func (r SSHRunner) trustedHostKeys() (ssh.HostKeyCallback, error) {
	path := strings.TrimSpace(r.KnownHostsPath)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("known_hosts path unset and home dir unavailable: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts: %w", err)
	}
	return callback, nil
}
