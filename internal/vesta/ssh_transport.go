package vesta

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/server"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/strutil"
)

// DefaultBinDir is where the panel installs its v-* scripts.
const DefaultBinDir = "/usr/local/vesta/bin"

// SSHTransport runs the panel scripts directly over SSH. The exit status
// of a script is the same code the API would return.
type SSHTransport struct {
	srv    server.Server
	binDir string
}

func NewSSHTransport(srv server.Server, binDir string) *SSHTransport {
	if binDir == "" {
		binDir = DefaultBinDir
	}
	return &SSHTransport{srv: srv, binDir: binDir}
}

func (t *SSHTransport) Send(ctx context.Context, cmd Command) (string, error) {
	prefix, err := t.privilegePrefix(ctx)
	if err != nil {
		return "", err
	}

	// Errors name only the command: its arguments hold passwords.
	_, err = t.srv.Execute(ctx, prefix+t.commandLine(cmd))
	if err == nil {
		return "0", nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return strconv.Itoa(exitErr.ExitStatus()), nil
	}
	return "", fmt.Errorf("run %s on %s (%s): %w", cmd.Name, t.srv.ID(), t.srv.Address(), err)
}

// privilegePrefix returns the sudo prefix for the login user and checks
// that sudo accepts it, so a refused sudo is not mistaken for a script
// exit code.
func (t *SSHTransport) privilegePrefix(ctx context.Context) (string, error) {
	prefix, err := server.SudoPrefix(ctx, t.srv)
	if err != nil || prefix == "" {
		return prefix, err
	}

	if _, err := t.srv.Execute(ctx, prefix+"true"); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: sudo refused for the login user on %s (%s)", ErrAuthentication, t.srv.ID(), t.srv.Address())
		}
		return "", fmt.Errorf("check sudo on %s (%s): %w", t.srv.ID(), t.srv.Address(), err)
	}
	return prefix, nil
}

func (t *SSHTransport) commandLine(cmd Command) string {
	parts := make([]string, 0, len(cmd.Args)+1)
	parts = append(parts, strutil.ShellEscape(path.Join(t.binDir, cmd.Name)))
	for _, arg := range cmd.Args {
		parts = append(parts, strutil.ShellEscape(arg))
	}
	return strings.Join(parts, " ")
}
