// Package vesta provisions hosting accounts on a VestaCP/HestiaCP server
// through its remote command API.
package vesta

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// AccountManager is the set of lifecycle operations a billing system
// drives against a hosting server.
type AccountManager interface {
	// TestConnection verifies the configured credentials without changing remote state.
	TestConnection(ctx context.Context) error
	// SynchronizeAccount returns the account as known by the server.
	SynchronizeAccount(ctx context.Context, a Account) (Account, error)
	CreateAccount(ctx context.Context, a Account) error
	SuspendAccount(ctx context.Context, a Account) error
	UnsuspendAccount(ctx context.Context, a Account) error
	CancelAccount(ctx context.Context, a Account) error
	ChangeAccountPackage(ctx context.Context, a Account, p Package) error
	ChangeAccountPassword(ctx context.Context, a Account, password string) error
	ChangeAccountUsername(ctx context.Context, a Account, username string) error
	ChangeAccountDomain(ctx context.Context, a Account, domain string) error
	ChangeAccountIP(ctx context.Context, a Account, ip string) error
	// LoginURL returns the panel login page for account owners.
	LoginURL() string
	// ResellerLoginURL returns the panel login page for resellers.
	ResellerLoginURL() string
}

var _ AccountManager = (*Manager)(nil)

// Manager implements AccountManager on top of a Transport. It keeps no
// state between calls and is safe for concurrent use.
type Manager struct {
	cfg       ServerConfig
	transport Transport
	logger    *slog.Logger
}

// New creates a Manager for the given server.
func New(cfg ServerConfig, transport Transport, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		transport: transport,
		logger:    logger,
	}
}

func (m *Manager) TestConnection(ctx context.Context) error {
	return m.run(ctx, OpTestConnection, "", listUsersCommand(m.cfg))
}

// SynchronizeAccount makes no remote call: the API exposes no read-back
// of account attributes, so the account is returned unchanged.
func (m *Manager) SynchronizeAccount(ctx context.Context, a Account) (Account, error) {
	m.logger.Info("Synchronizing account with server", "account", a.Username, "host", m.cfg.Host)
	return a, nil
}

// CreateAccount adds the user and then its domain. The user is not
// removed again when adding the domain fails.
func (m *Manager) CreateAccount(ctx context.Context, a Account) error {
	if err := m.run(ctx, OpCreateAccount, StepCreateUser, addUserCommand(a)); err != nil {
		return err
	}
	return m.run(ctx, OpCreateAccount, StepCreateDomain, addDomainCommand(a))
}

func (m *Manager) SuspendAccount(ctx context.Context, a Account) error {
	return m.run(ctx, OpSuspendAccount, "", suspendUserCommand(a))
}

func (m *Manager) UnsuspendAccount(ctx context.Context, a Account) error {
	return m.run(ctx, OpUnsuspendAccount, "", unsuspendUserCommand(a))
}

func (m *Manager) CancelAccount(ctx context.Context, a Account) error {
	return m.run(ctx, OpCancelAccount, "", deleteUserCommand(a))
}

func (m *Manager) ChangeAccountPackage(ctx context.Context, a Account, p Package) error {
	return m.run(ctx, OpChangeAccountPackage, "", changeUserPackageCommand(a, p))
}

func (m *Manager) ChangeAccountPassword(ctx context.Context, a Account, password string) error {
	return m.run(ctx, OpChangeAccountPassword, "", changeUserPasswordCommand(a, password))
}

func (m *Manager) ChangeAccountUsername(ctx context.Context, a Account, username string) error {
	return unsupported(OpChangeAccountUsername)
}

func (m *Manager) ChangeAccountDomain(ctx context.Context, a Account, domain string) error {
	return unsupported(OpChangeAccountDomain)
}

func (m *Manager) ChangeAccountIP(ctx context.Context, a Account, ip string) error {
	return unsupported(OpChangeAccountIP)
}

func (m *Manager) LoginURL() string {
	return m.cfg.BaseURL()
}

// ResellerLoginURL is the same page as LoginURL; the panel has no separate reseller portal.
func (m *Manager) ResellerLoginURL() string {
	return m.LoginURL()
}

func (m *Manager) run(ctx context.Context, op Operation, step string, cmd Command) error {
	body, err := m.request(ctx, cmd)
	if err != nil {
		err.Op = op
		err.Step = step
		return err
	}

	outcome, cerr := classify(op, body)
	if cerr != nil {
		cerr.Step = step
		cerr.Cmd = cmd.Name
		return cerr
	}
	if outcome == IdempotentSuccess {
		m.logger.Info("Account already in requested state", "op", op, "cmd", cmd.Name, "code", strings.TrimSpace(body), "host", m.cfg.Host)
	}
	return nil
}

// request sends the command and rejects answers the panel marks as errors.
// Transport errors are connectivity failures unless the transport reports
// ErrAuthentication.
// Other non-zero answers are only logged; the caller classifies them.
func (m *Manager) request(ctx context.Context, cmd Command) (string, *Error) {
	m.logger.Debug("Sending remote command", "cmd", cmd.Name, "host", m.cfg.Host)

	body, err := m.transport.Send(ctx, cmd)
	if err != nil {
		kind := ErrConnectivity
		if errors.Is(err, ErrAuthentication) {
			kind = ErrAuthentication
		}
		return "", &Error{Cmd: cmd.Name, Kind: kind, Err: err}
	}
	if strings.Contains(body, errorMarker) {
		return "", &Error{Cmd: cmd.Name, Code: strings.TrimSpace(body), Kind: ErrAuthentication}
	}
	if code, ok := parseCode(body); !ok || code != 0 {
		m.logger.Warn("Remote command returned non-zero code", "cmd", cmd.Name, "code", strings.TrimSpace(body), "host", m.cfg.Host)
	}
	return body, nil
}
