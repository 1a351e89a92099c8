package server

import (
	"context"
	"fmt"
	"strings"
)

// Server is a remote host that can run shell commands.
type Server interface {
	// ID returns a unique identifier for the server.
	ID() string
	// Address returns the connection address (host or host:port).
	Address() string
	// Execute runs a command on the server and returns its combined output.
	Execute(ctx context.Context, command string) (string, error)
}

// SudoPrefix returns "sudo -n " unless the login user already is root.
func SudoPrefix(ctx context.Context, s Server) (string, error) {
	output, err := s.Execute(ctx, "id -u")
	if err != nil {
		return "", fmt.Errorf("check for root user on %s: %w", s.ID(), err)
	}
	if strings.TrimSpace(output) == "0" {
		return "", nil
	}
	return "sudo -n ", nil
}
