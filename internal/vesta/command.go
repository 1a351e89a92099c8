package vesta

import (
	"net/url"
	"strconv"
)

// Remote command names understood by the panel API.
const (
	CmdListUsers          = "v-list-users"
	CmdAddUser            = "v-add-user"
	CmdAddDomain          = "v-add-domain"
	CmdSuspendUser        = "v-suspend-user"
	CmdUnsuspendUser      = "v-unsuspend-user"
	CmdDeleteUser         = "v-delete-user"
	CmdChangeUserPackage  = "v-change-user-package"
	CmdChangeUserPassword = "v-change-user-password"
)

// restartFlag is passed to commands that accept a "restart services" argument.
const restartFlag = "no"

// Command is a single remote command with positional arguments.
type Command struct {
	Name string
	Args []string
}

// Fields encodes the command as API form fields. The returncode flag
// makes the panel answer with a numeric code instead of free text.
func (c Command) Fields() url.Values {
	v := url.Values{}
	v.Set("returncode", "yes")
	v.Set("cmd", c.Name)
	for i, arg := range c.Args {
		v.Set("arg"+strconv.Itoa(i+1), arg)
	}
	return v
}

func listUsersCommand(cfg ServerConfig) Command {
	return Command{Name: CmdListUsers, Args: []string{cfg.Username, cfg.Password}}
}

func addUserCommand(a Account) Command {
	first, last := a.Client.SplitName()
	return Command{
		Name: CmdAddUser,
		Args: []string{
			a.Username,
			a.Password,
			a.Client.Email,
			packageName(a.Package),
			first,
			last,
		},
	}
}

func addDomainCommand(a Account) Command {
	return Command{Name: CmdAddDomain, Args: []string{a.Username, a.Domain}}
}

func suspendUserCommand(a Account) Command {
	return Command{Name: CmdSuspendUser, Args: []string{a.Username, restartFlag}}
}

func unsuspendUserCommand(a Account) Command {
	return Command{Name: CmdUnsuspendUser, Args: []string{a.Username, restartFlag}}
}

func deleteUserCommand(a Account) Command {
	return Command{Name: CmdDeleteUser, Args: []string{a.Username, restartFlag}}
}

func changeUserPackageCommand(a Account, p Package) Command {
	return Command{Name: CmdChangeUserPackage, Args: []string{a.Username, packageName(p), restartFlag}}
}

func changeUserPasswordCommand(a Account, password string) Command {
	return Command{Name: CmdChangeUserPassword, Args: []string{a.Username, password}}
}
