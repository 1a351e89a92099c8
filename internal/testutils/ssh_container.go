package testutils

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/server"
)

// SSHContainer is a disposable SSH host whose user may sudo with SudoPassword.
type SSHContainer struct {
	Container      testcontainers.Container
	Address        string
	Login          server.Login
	KnownHostsPath string
}

const (
	defaultSSHImage          = "linuxserver/openssh-server:version-10.0_p1-r10"
	defaultSSHStartupTimeout = 30 * time.Second
	sshTestUser              = "testuser"
	sshTestPassword          = "testpass"
)

func SetupSSHContainer(t *testing.T, ctx context.Context) *SSHContainer {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	keyPath, pubKeyStr := writeTestKey(t)

	image := os.Getenv("VESTAPROV_TEST_SSH_IMAGE")
	if image == "" {
		image = defaultSSHImage
	}

	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{"2222/tcp"},
		Env: map[string]string{
			"PUBLIC_KEY":    pubKeyStr,
			"USER_NAME":     sshTestUser,
			"USER_PASSWORD": sshTestPassword,
			"SUDO_ACCESS":   "true",
		},
		WaitingFor: wait.ForListeningPort("2222/tcp").WithStartupTimeout(defaultSSHStartupTimeout),
	}

	sshContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	t.Cleanup(func() {
		if err := sshContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate ssh container: %v", err)
		}
	})

	host, err := sshContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := sshContainer.MappedPort(ctx, "2222")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	address := fmt.Sprintf("%s:%s", host, port.Port())

	hostKey, err := fetchHostKey(ctx, address)
	if err != nil {
		t.Fatalf("failed to fetch host key: %v", err)
	}

	knownHostsPath := filepath.Join(filepath.Dir(keyPath), "known_hosts")
	knownHostsLine := knownhosts.Line([]string{address}, hostKey)
	if err := os.WriteFile(knownHostsPath, []byte(knownHostsLine+"\n"), 0600); err != nil {
		t.Fatalf("failed to write known_hosts: %v", err)
	}

	return &SSHContainer{
		Container:      sshContainer,
		Address:        address,
		Login:          server.Login{User: sshTestUser, KeyFile: keyPath, SudoPassword: sshTestPassword},
		KnownHostsPath: knownHostsPath,
	}
}

// writeTestKey writes a fresh ed25519 private key and returns its path
// together with the authorized_keys line for it.
func writeTestKey(t *testing.T) (string, string) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate private key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "vestaprov-test")
	if err != nil {
		t.Fatalf("failed to marshal private key: %v", err)
	}
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(block), 0600); err != nil {
		t.Fatalf("failed to write private key: %v", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("failed to create public key: %v", err)
	}
	return keyPath, string(ssh.MarshalAuthorizedKey(sshPub))
}

// InstallScripts writes one executable per entry into dir inside the
// container. Each script only exits with its code.
func (c *SSHContainer) InstallScripts(t *testing.T, ctx context.Context, dir string, exitCodes map[string]int) {
	t.Helper()

	var script strings.Builder
	fmt.Fprintf(&script, "set -e; mkdir -p %s", dir)
	for name, code := range exitCodes {
		path := dir + "/" + name
		fmt.Fprintf(&script, "; printf '#!/bin/sh\\nexit %d\\n' > %s; chmod 755 %s", code, path, path)
	}

	exitCode, output, err := c.Container.Exec(ctx, []string{"sh", "-c", script.String()})
	if err != nil {
		t.Fatalf("failed to install scripts: %v", err)
	}
	if exitCode != 0 {
		out, _ := io.ReadAll(output)
		t.Fatalf("installing scripts exited with %d: %s", exitCode, out)
	}
}

func fetchHostKey(ctx context.Context, address string) (ssh.PublicKey, error) {
	var hostKey ssh.PublicKey
	config := &ssh.ClientConfig{
		User: sshTestUser,
		Auth: []ssh.AuthMethod{
			ssh.Password("invalid"),
		},
		HostKeyCallback: func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			hostKey = key
			return nil
		},
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", address, err)
	}
	defer conn.Close()

	_, _, _, err = ssh.NewClientConn(conn, address, config)
	if hostKey == nil {
		if err != nil {
			return nil, fmt.Errorf("failed to capture host key: %w", err)
		}
		return nil, errors.New("failed to capture host key")
	}
	return hostKey, nil
}
