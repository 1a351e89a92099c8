package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/config"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/server"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/vesta"
)

type App struct {
	Logger *slog.Logger
	Config *config.Config
}

func New(cfg *config.Config, verbose bool) *App {
	return NewWithOutput(cfg, os.Stdout, verbose)
}

// NewWithOutput creates an App that logs to w.
func NewWithOutput(cfg *config.Config, w io.Writer, verbose bool) *App {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))

	return &App{
		Logger: logger,
		Config: cfg,
	}
}

// Servers returns the configured servers, or only the named one.
func (a *App) Servers(name string) ([]config.ServerConfig, error) {
	if name == "" {
		return a.Config.Servers, nil
	}
	s, err := a.Config.Server(name)
	if err != nil {
		return nil, err
	}
	return []config.ServerConfig{s}, nil
}

// Manager builds an account manager for the server using its configured transport.
func (a *App) Manager(s config.ServerConfig) (*vesta.Manager, error) {
	transport, err := NewTransport(s)
	if err != nil {
		return nil, err
	}
	return vesta.New(s.Panel(), transport, a.Logger.With("server", s.Name)), nil
}

// NewTransport selects the transport configured for the server.
func NewTransport(s config.ServerConfig) (vesta.Transport, error) {
	switch s.TransportName() {
	case config.TransportHTTP:
		return vesta.NewHTTPTransport(s.Panel(), s.Timeout), nil
	case config.TransportSSH:
		address := s.SSH.Address
		if address == "" {
			address = s.Host
		}
		srv := server.NewSSHServer(s.Name, address, server.Login{
			User:         s.SSH.User,
			KeyFile:      s.SSH.SSHKey,
			SudoPassword: s.SSH.SudoPassword,
		}, server.SSHOptions{
			KnownHostsPath:   s.SSH.KnownHostsPath,
			UseAgent:         s.SSH.UseAgent,
			HandshakeTimeout: s.SSH.HandshakeTimeout,
		})
		return vesta.NewSSHTransport(srv, s.SSH.BinDir), nil
	default:
		return nil, fmt.Errorf("server %s: unknown transport %q", s.Name, s.Transport)
	}
}
