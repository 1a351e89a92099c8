package vesta

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	ErrConnectivity   = errors.New("connection to server failed")
	ErrAuthentication = errors.New("server rejected the request, verify credentials and configuration")
	ErrCommandFailed  = errors.New("remote command failed")
	ErrUnsupported    = errors.New("operation not supported")
)

// Operation names a lifecycle operation of the adapter.
type Operation string

const (
	OpTestConnection        Operation = "test connection"
	OpSynchronizeAccount    Operation = "synchronize account"
	OpCreateAccount         Operation = "create account"
	OpSuspendAccount        Operation = "suspend account"
	OpUnsuspendAccount      Operation = "unsuspend account"
	OpCancelAccount         Operation = "cancel account"
	OpChangeAccountPackage  Operation = "change account package"
	OpChangeAccountPassword Operation = "change account password"
	OpChangeAccountUsername Operation = "change account username"
	OpChangeAccountDomain   Operation = "change account domain"
	OpChangeAccountIP       Operation = "change account ip"
)

// Steps of OpCreateAccount.
const (
	StepCreateUser   = "create user"
	StepCreateDomain = "create domain"
)

// Error is returned by every failing lifecycle operation.
type Error struct {
	Op   Operation
	Step string
	Cmd  string
	// Code is the raw remote answer, empty when none was received.
	Code string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Op))
	if e.Step != "" {
		fmt.Fprintf(&b, " (%s)", e.Step)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Cmd != "" {
		fmt.Fprintf(&b, " [%s]", e.Cmd)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, ", error code: %s", e.Code)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func unsupported(op Operation) error {
	return &Error{Op: op, Kind: ErrUnsupported}
}
