package server_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/server"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/testutils"
)

func newSessionServer(t *testing.T, handle testutils.ExecHandler) *server.SSHServer {
	t.Helper()

	sshd := testutils.StartSSHServer(t, "admin", handle)
	noAgent := false
	return server.NewSSHServer("test", sshd.Address, sshd.Login, server.SSHOptions{
		KnownHostsPath: sshd.KnownHostsPath,
		UseAgent:       &noAgent,
	})
}

func TestExecute(t *testing.T) {
	commands := make(chan string, 1)
	srv := newSessionServer(t, func(command string, ch ssh.Channel) {
		commands <- command
		testutils.ExitWith(ch, "1000\n", 0)
	})

	output, err := srv.Execute(context.Background(), "id -u")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if output != "1000\n" {
		t.Errorf("expected output %q, got %q", "1000\n", output)
	}
	if got := <-commands; got != "id -u" {
		t.Errorf("expected command %q, got %q", "id -u", got)
	}
}

func TestExecuteExitStatus(t *testing.T) {
	srv := newSessionServer(t, func(command string, ch ssh.Channel) {
		testutils.ExitWith(ch, "", 6)
	})

	_, err := srv.Execute(context.Background(), "v-suspend-user 'alice' 'no'")
	var exitErr *ssh.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ssh.ExitError, got %v", err)
	}
	if exitErr.ExitStatus() != 6 {
		t.Errorf("expected exit status 6, got %d", exitErr.ExitStatus())
	}
}

func TestExecuteErrorOmitsCommand(t *testing.T) {
	tests := []struct {
		name   string
		handle testutils.ExecHandler
	}{
		{
			name:   "Exit status",
			handle: func(command string, ch ssh.Channel) { testutils.ExitWith(ch, "", 1) },
		},
		{
			name:   "No exit status",
			handle: func(command string, ch ssh.Channel) { ch.Close() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newSessionServer(t, tt.handle)
			_, err := srv.Execute(context.Background(), "v-change-user-password 'alice' 'NewSecret42'")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if strings.Contains(err.Error(), "NewSecret42") || strings.Contains(err.Error(), "v-change-user-password") {
				t.Errorf("error leaks the command line: %v", err)
			}
		})
	}
}
