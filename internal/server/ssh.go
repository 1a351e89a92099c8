package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultSSHPort          = "22"
	defaultHandshakeTimeout = 15 * time.Second
	nonInteractiveSudo      = "sudo -n "
)

// SSHOptions tunes how an SSHServer connects. The zero value verifies
// hosts against ~/.ssh/known_hosts, offers agent keys and allows 15s for
// the handshake.
type SSHOptions struct {
	KnownHostsPath   string
	UseAgent         *bool
	HandshakeTimeout time.Duration
}

// SSHServer opens a new SSH connection for every command.
type SSHServer struct {
	name    string
	address string
	login   Login
	opts    SSHOptions
}

func NewSSHServer(name, address string, login Login, opts SSHOptions) *SSHServer {
	return &SSHServer{
		name:    name,
		address: address,
		login:   login,
		opts:    opts,
	}
}

func (s *SSHServer) ID() string      { return s.name }
func (s *SSHServer) Address() string { return s.address }

// Execute runs command in a new session. A non-zero exit status is
// returned as a wrapped *ssh.ExitError together with the output. Errors
// never include the command.
func (s *SSHServer) Execute(ctx context.Context, command string) (string, error) {
	client, err := s.dial(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()
	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("open session on %s: %w", s.name, err)
	}
	defer session.Close()

	command, stdin := s.sudoWithPassword(command)
	if stdin != nil {
		session.Stdin = stdin
	}

	output, err := session.CombinedOutput(command)
	if err != nil {
		return string(output), fmt.Errorf("run on %s: %w", s.name, err)
	}
	return string(output), nil
}

// sudoWithPassword switches a non-interactive sudo call to read the
// configured password from stdin.
func (s *SSHServer) sudoWithPassword(command string) (string, io.Reader) {
	if s.login.SudoPassword == "" || s.login.isRoot() {
		return command, nil
	}
	rest, ok := strings.CutPrefix(command, nonInteractiveSudo)
	if !ok {
		return command, nil
	}
	return "sudo -S -p '' " + rest, strings.NewReader(s.login.SudoPassword + "\n")
}

func (s *SSHServer) dial(ctx context.Context) (*ssh.Client, error) {
	config, release, err := s.clientConfig()
	if err != nil {
		return nil, err
	}
	defer release()

	addr := s.dialAddress()
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	deadline := time.Now().Add(s.handshakeTimeout())
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set handshake deadline for %s: %w", addr, err)
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	stop()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		sshConn.Close()
		return nil, fmt.Errorf("clear handshake deadline for %s: %w", addr, err)
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// clientConfig returns the SSH client settings and a func releasing the
// agent connection, which must stay open until the handshake is done.
func (s *SSHServer) clientConfig() (*ssh.ClientConfig, func(), error) {
	var auth []ssh.AuthMethod
	release := func() {}

	if s.login.KeyFile != "" {
		signer, err := loadSigner(s.login.KeyFile)
		if err != nil {
			return nil, nil, err
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if s.useAgent() {
		if method, closeAgent, ok := agentAuth(); ok {
			auth = append(auth, method)
			release = closeAgent
		}
	}
	if len(auth) == 0 {
		return nil, nil, fmt.Errorf("no ssh authentication methods available for %s", s.name)
	}

	hostKeys, err := s.hostKeyCallback()
	if err != nil {
		release()
		return nil, nil, err
	}

	return &ssh.ClientConfig{
		User:            s.login.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
	}, release, nil
}

func (s *SSHServer) dialAddress() string {
	if _, _, err := net.SplitHostPort(s.address); err == nil {
		return s.address
	}
	return net.JoinHostPort(s.address, defaultSSHPort)
}

func (s *SSHServer) hostKeyCallback() (ssh.HostKeyCallback, error) {
	path := s.opts.KnownHostsPath
	if path == "" {
		path = "~/.ssh/known_hosts"
	}
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts %q: %w", path, err)
	}
	return callback, nil
}

func (s *SSHServer) useAgent() bool {
	return s.opts.UseAgent == nil || *s.opts.UseAgent
}

func (s *SSHServer) handshakeTimeout() time.Duration {
	if s.opts.HandshakeTimeout > 0 {
		return s.opts.HandshakeTimeout
	}
	return defaultHandshakeTimeout
}

func loadSigner(keyFile string) (ssh.Signer, error) {
	path, err := expandHome(keyFile)
	if err != nil {
		return nil, err
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ssh key %q: %w", path, err)
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, fmt.Errorf("parse ssh key %q: %w", path, err)
	}
	return signer, nil
}

// agentAuth offers the keys of the agent at SSH_AUTH_SOCK, if one is reachable.
func agentAuth() (ssh.AuthMethod, func(), bool) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, nil, false
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, nil, false
	}
	method := ssh.PublicKeysCallback(agent.NewClient(conn).Signers)
	return method, func() { conn.Close() }, true
}

func expandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, rest), nil
}
