package vesta_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/server"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/testutils"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/vesta"
)

// newSSHManager serves "id -u" as uid and hands every other command to handle.
func newSSHManager(t *testing.T, uid string, handle testutils.ExecHandler) *vesta.Manager {
	t.Helper()

	sshd := testutils.StartSSHServer(t, "admin", func(command string, ch ssh.Channel) {
		if command == "id -u" {
			testutils.ExitWith(ch, uid+"\n", 0)
			return
		}
		handle(command, ch)
	})
	noAgent := false
	srv := server.NewSSHServer("panel-ssh", sshd.Address, sshd.Login, server.SSHOptions{
		KnownHostsPath: sshd.KnownHostsPath,
		UseAgent:       &noAgent,
	})

	cfg := vesta.ServerConfig{Host: "panel-ssh", Username: "admin", Password: "AdminSecret7"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return vesta.New(cfg, vesta.NewSSHTransport(srv, ""), logger)
}

func TestSSHTransportErrorsOmitSecrets(t *testing.T) {
	dropped := func(command string, ch ssh.Channel) { ch.Close() }
	m := newSSHManager(t, "0", dropped)
	ctx := context.Background()

	tests := []struct {
		name   string
		secret string
		call   func() error
	}{
		{
			name:   "Change password",
			secret: "NewSecret42",
			call:   func() error { return m.ChangeAccountPassword(ctx, testAccount, "NewSecret42") },
		},
		{
			name:   "Create account",
			secret: "TopSecretPw",
			call: func() error {
				a := testAccount
				a.Password = "TopSecretPw"
				return m.CreateAccount(ctx, a)
			},
		},
		{
			name:   "Test connection",
			secret: "AdminSecret7",
			call:   func() error { return m.TestConnection(ctx) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, vesta.ErrConnectivity) {
				t.Fatalf("expected ErrConnectivity, got %v", err)
			}
			if strings.Contains(err.Error(), tt.secret) {
				t.Errorf("error leaks a password: %v", err)
			}
		})
	}
}

func TestSSHTransportExitCodes(t *testing.T) {
	m := newSSHManager(t, "0", func(command string, ch ssh.Channel) {
		switch {
		case strings.Contains(command, vesta.CmdSuspendUser):
			testutils.ExitWith(ch, "", 6)
		case strings.Contains(command, vesta.CmdDeleteUser):
			testutils.ExitWith(ch, "Error: user alice doesn't exist\n", 3)
		default:
			testutils.ExitWith(ch, "", 4)
		}
	})
	ctx := context.Background()

	if err := m.SuspendAccount(ctx, testAccount); err != nil {
		t.Errorf("expected suspended account to succeed, got %v", err)
	}
	if err := m.CancelAccount(ctx, testAccount); err != nil {
		t.Errorf("expected missing account to cancel, got %v", err)
	}

	err := m.UnsuspendAccount(ctx, testAccount)
	var verr *vesta.Error
	if !errors.As(err, &verr) || verr.Code != "4" || !errors.Is(err, vesta.ErrCommandFailed) {
		t.Errorf("expected command failure with code 4, got %v", err)
	}
}

func TestSSHTransportSudoRefused(t *testing.T) {
	var (
		mu  sync.Mutex
		ran []string
	)
	m := newSSHManager(t, "1000", func(command string, ch ssh.Channel) {
		mu.Lock()
		ran = append(ran, command)
		mu.Unlock()
		if command == "sudo -n true" {
			testutils.ExitWith(ch, "sudo: a password is required\n", 1)
			return
		}
		testutils.ExitWith(ch, "", 0)
	})

	err := m.SuspendAccount(context.Background(), testAccount)
	if !errors.Is(err, vesta.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if errors.Is(err, vesta.ErrCommandFailed) {
		t.Errorf("sudo refusal reported as command failure: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	for _, command := range ran {
		if strings.Contains(command, vesta.CmdSuspendUser) {
			t.Errorf("panel script ran after sudo was refused: %q", command)
		}
	}
}
