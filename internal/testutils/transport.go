package testutils

import (
	"context"
	"sync"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/vesta"
)

// Transport is a scripted vesta.Transport that records every command it is sent.
// Commands without a scripted answer succeed with "0".
type Transport struct {
	mu        sync.Mutex
	responses map[string][]string
	errs      map[string]error
	calls     []vesta.Command
}

func NewTransport() *Transport {
	return &Transport{
		responses: make(map[string][]string),
		errs:      make(map[string]error),
	}
}

// Respond queues answers for the named command; they are consumed in order.
func (t *Transport) Respond(cmd string, bodies ...string) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[cmd] = append(t.responses[cmd], bodies...)
	return t
}

// Fail makes every call of the named command return err.
func (t *Transport) Fail(cmd string, err error) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errs[cmd] = err
	return t
}

func (t *Transport) Send(ctx context.Context, cmd vesta.Command) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls = append(t.calls, cmd)
	if err := t.errs[cmd.Name]; err != nil {
		return "", err
	}
	queue := t.responses[cmd.Name]
	if len(queue) == 0 {
		return "0", nil
	}
	t.responses[cmd.Name] = queue[1:]
	return queue[0], nil
}

// Calls returns the commands sent so far.
func (t *Transport) Calls() []vesta.Command {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]vesta.Command(nil), t.calls...)
}

// Names returns the names of the commands sent so far.
func (t *Transport) Names() []string {
	calls := t.Calls()
	names := make([]string, 0, len(calls))
	for _, c := range calls {
		names = append(names, c.Name)
	}
	return names
}
