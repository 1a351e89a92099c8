package testutils

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/server"
)

// ExecHandler answers one exec request. It owns the channel and must
// close it.
type ExecHandler func(command string, ch ssh.Channel)

// SSHServer is an in-process SSH server accepting a single test key.
type SSHServer struct {
	Address        string
	KnownHostsPath string
	Login          server.Login
}

// StartSSHServer listens on a loopback port until the test ends.
func StartSSHServer(t *testing.T, user string, handle ExecHandler) *SSHServer {
	t.Helper()

	_, hostKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate host key: %v", err)
	}
	hostSigner, err := ssh.NewSignerFromKey(hostKey)
	if err != nil {
		t.Fatalf("failed to create host signer: %v", err)
	}

	keyPath, _ := writeTestKey(t)
	clientKey, err := os.ReadFile(keyPath)
	if err != nil {
		t.Fatalf("failed to read client key: %v", err)
	}
	clientSigner, err := ssh.ParsePrivateKey(clientKey)
	if err != nil {
		t.Fatalf("failed to parse client key: %v", err)
	}
	allowed := clientSigner.PublicKey().Marshal()

	config := &ssh.ServerConfig{
		PublicKeyCallback: func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if conn.User() == user && bytes.Equal(key.Marshal(), allowed) {
				return nil, nil
			}
			return nil, errors.New("unknown key")
		},
	}
	config.AddHostKey(hostSigner)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go serveSSHConn(conn, config, handle)
		}
	}()

	address := listener.Addr().String()
	knownHostsPath := filepath.Join(t.TempDir(), "known_hosts")
	line := knownhosts.Line([]string{address}, hostSigner.PublicKey())
	if err := os.WriteFile(knownHostsPath, []byte(line+"\n"), 0600); err != nil {
		t.Fatalf("failed to write known_hosts: %v", err)
	}

	return &SSHServer{
		Address:        address,
		KnownHostsPath: knownHostsPath,
		Login:          server.Login{User: user, KeyFile: keyPath},
	}
}

// ExitWith writes output and reports status before closing ch.
func ExitWith(ch ssh.Channel, output string, status uint32) {
	if output != "" {
		ch.Write([]byte(output))
	}
	ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
	ch.Close()
}

func serveSSHConn(conn net.Conn, config *ssh.ServerConfig, handle ExecHandler) {
	sshConn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		conn.Close()
		return
	}
	defer sshConn.Close()
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "only sessions are supported")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			continue
		}
		go serveSession(ch, requests, handle)
	}
}

func serveSession(ch ssh.Channel, requests <-chan *ssh.Request, handle ExecHandler) {
	for req := range requests {
		if req.Type != "exec" {
			req.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			req.Reply(false, nil)
			continue
		}
		req.Reply(true, nil)
		go ssh.DiscardRequests(requests)
		handle(payload.Command, ch)
		return
	}
}
