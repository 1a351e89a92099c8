// Package accounts builds account lifecycle tasks from the "accounts"
// section of a manifest.
package accounts

import (
	"context"
	"fmt"
	"sort"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/strutil"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/task"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/vesta"
)

const TaskKey = "accounts"

// Actions understood in a manifest.
const (
	ActionCreate         = "create"
	ActionSuspend        = "suspend"
	ActionUnsuspend      = "unsuspend"
	ActionCancel         = "cancel"
	ActionChangePackage  = "change-package"
	ActionChangePassword = "change-password"
)

type AccountConfig struct {
	Action   string `yaml:"action"`
	Password string `yaml:"password"`
	Domain   string `yaml:"domain"`
	Package  string `yaml:"package"`
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
}

type Config struct {
	Defaults AccountConfig            `yaml:"defaults"`
	Users    map[string]AccountConfig `yaml:"users"`
}

// Section is the "accounts" manifest section.
func Section() task.Section {
	return task.NewSection(TaskKey, "accounts.yaml", buildAccountTasks)
}

func buildAccountTasks(cfg Config) ([]task.Task, error) {
	names := make([]string, 0, len(cfg.Users))
	for name := range cfg.Users {
		names = append(names, name)
	}
	sort.Strings(names)

	tasks := make([]task.Task, 0, len(names))
	for _, name := range names {
		if err := strutil.ValidateIdentifier("account", name); err != nil {
			return nil, err
		}
		userCfg := cfg.Users[name]
		accountCfg := userCfg.withDefaults(cfg.Defaults)
		if err := accountCfg.validate(name); err != nil {
			return nil, err
		}
		// change-package never takes its package from defaults.
		if accountCfg.Action == ActionChangePackage && userCfg.Package == "" {
			return nil, fmt.Errorf("account %s: %s requires an explicit package", name, ActionChangePackage)
		}
		tasks = append(tasks, &AccountTask{name: name, config: accountCfg})
	}
	return tasks, nil
}

func (c AccountConfig) withDefaults(d AccountConfig) AccountConfig {
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&c.Action, d.Action)
	fill(&c.Password, d.Password)
	fill(&c.Domain, d.Domain)
	fill(&c.Package, d.Package)
	fill(&c.Email, d.Email)
	fill(&c.FullName, d.FullName)
	return c
}

func (c AccountConfig) validate(name string) error {
	var missing string
	switch c.Action {
	case ActionCreate:
		switch {
		case c.Password == "":
			missing = "password"
		case c.Domain == "":
			missing = "domain"
		case c.Email == "":
			missing = "email"
		case c.Package == "":
			missing = "package"
		}
	case ActionChangePackage:
		if c.Package == "" {
			missing = "package"
		}
	case ActionChangePassword:
		if c.Password == "" {
			missing = "password"
		}
	case ActionSuspend, ActionUnsuspend, ActionCancel:
	case "":
		return fmt.Errorf("account %s: action is required", name)
	default:
		return fmt.Errorf("account %s: unknown action %q", name, c.Action)
	}
	if missing != "" {
		return fmt.Errorf("account %s: %s requires %s", name, c.Action, missing)
	}
	return nil
}

// AccountTask applies one manifest action to one account.
type AccountTask struct {
	name   string
	config AccountConfig
}

func (t *AccountTask) Name() string {
	return fmt.Sprintf("account: %s (%s)", t.name, t.config.Action)
}

func (t *AccountTask) Execute(ctx context.Context, m vesta.AccountManager) error {
	a := t.account()
	switch t.config.Action {
	case ActionCreate:
		return m.CreateAccount(ctx, a)
	case ActionSuspend:
		return m.SuspendAccount(ctx, a)
	case ActionUnsuspend:
		return m.UnsuspendAccount(ctx, a)
	case ActionCancel:
		return m.CancelAccount(ctx, a)
	case ActionChangePackage:
		return m.ChangeAccountPackage(ctx, a, a.Package)
	case ActionChangePassword:
		return m.ChangeAccountPassword(ctx, a, t.config.Password)
	default:
		return fmt.Errorf("unknown action %q", t.config.Action)
	}
}

func (t *AccountTask) account() vesta.Account {
	return vesta.Account{
		Username: t.name,
		Password: t.config.Password,
		Domain:   t.config.Domain,
		Client: vesta.Client{
			FullName: t.config.FullName,
			Email:    t.config.Email,
		},
		Package: vesta.Package{Name: t.config.Package},
	}
}
