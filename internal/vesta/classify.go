package vesta

import (
	"strconv"
	"strings"
)

// Outcome is the classification of a remote answer.
type Outcome int

const (
	Failure Outcome = iota
	Success
	// IdempotentSuccess means the account already was in the requested state.
	IdempotentSuccess
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case IdempotentSuccess:
		return "idempotent success"
	default:
		return "failure"
	}
}

// errorMarker in a response body means the panel refused the request as a whole.
const errorMarker = "Error"

// Codes the panel returns when the account is already in the requested state.
var idempotentCodes = map[Operation]int{
	OpSuspendAccount: 6,
	OpCancelAccount:  3,
}

// Classify interprets a raw remote answer for the given operation.
// Non-numeric answers are failures.
func Classify(op Operation, body string) (Outcome, error) {
	outcome, err := classify(op, body)
	if err != nil {
		return outcome, err
	}
	return outcome, nil
}

func classify(op Operation, body string) (Outcome, *Error) {
	raw := strings.TrimSpace(body)
	if strings.Contains(body, errorMarker) {
		return Failure, &Error{Op: op, Code: raw, Kind: ErrAuthentication}
	}

	code, ok := parseCode(body)
	if !ok {
		return Failure, &Error{Op: op, Code: raw, Kind: ErrCommandFailed}
	}
	if code == 0 {
		return Success, nil
	}
	if idempotent, ok := idempotentCodes[op]; ok && code == idempotent {
		return IdempotentSuccess, nil
	}
	return Failure, &Error{Op: op, Code: raw, Kind: ErrCommandFailed}
}

func parseCode(body string) (int, bool) {
	code, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil {
		return 0, false
	}
	return code, true
}
