package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/strutil"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/vesta"
)

var (
	accountUsername string
	accountPassword string
	accountDomain   string
	accountPackage  string
	accountEmail    string
	accountFullName string
)

// defaultPackage is the package every panel installation ships with.
const defaultPackage = "default"

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage a single hosting account",
}

// accountOperation is one lifecycle call made by an account subcommand.
type accountOperation func(ctx context.Context, m vesta.AccountManager, a vesta.Account) error

func newAccountCommand(use, short string, op accountOperation) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountOperation(cmd, use, op)
		},
	}
}

func runAccountOperation(cmd *cobra.Command, name string, op accountOperation) error {
	provApp := getApp(cmd)

	a := accountFromFlags()
	if err := strutil.ValidateIdentifier("account", a.Username); err != nil {
		return err
	}

	m, srv, err := singleManager(provApp)
	if err != nil {
		return err
	}

	provApp.Logger.Info("Running account operation", "operation", name, "account", a.Username, "server", srv)
	if err := op(cmd.Context(), m, a); err != nil {
		return fmt.Errorf("%s %s on %s: %w", name, a.Username, srv, err)
	}
	provApp.Logger.Info("Account operation completed", "operation", name, "account", a.Username, "server", srv)
	return nil
}

func accountFromFlags() vesta.Account {
	return vesta.Account{
		Username: strings.TrimSpace(accountUsername),
		Password: accountPassword,
		Domain:   strings.TrimSpace(accountDomain),
		Client: vesta.Client{
			FullName: accountFullName,
			Email:    strings.TrimSpace(accountEmail),
		},
		Package: vesta.Package{Name: strings.TrimSpace(accountPackage)},
	}
}

var (
	accountCreateCmd = newAccountCommand("create", "Create the user and its domain", func(ctx context.Context, m vesta.AccountManager, a vesta.Account) error {
		if a.Package.Name == "" {
			a.Package.Name = defaultPackage
		}
		return m.CreateAccount(ctx, a)
	})
	accountSuspendCmd = newAccountCommand("suspend", "Suspend the account", func(ctx context.Context, m vesta.AccountManager, a vesta.Account) error {
		return m.SuspendAccount(ctx, a)
	})
	accountUnsuspendCmd = newAccountCommand("unsuspend", "Unsuspend the account", func(ctx context.Context, m vesta.AccountManager, a vesta.Account) error {
		return m.UnsuspendAccount(ctx, a)
	})
	accountCancelCmd = newAccountCommand("cancel", "Delete the account from the server", func(ctx context.Context, m vesta.AccountManager, a vesta.Account) error {
		return m.CancelAccount(ctx, a)
	})
	accountChangePackageCmd = newAccountCommand("change-package", "Move the account to another package", func(ctx context.Context, m vesta.AccountManager, a vesta.Account) error {
		return m.ChangeAccountPackage(ctx, a, a.Package)
	})
	accountChangePasswordCmd = newAccountCommand("change-password", "Set a new account password", func(ctx context.Context, m vesta.AccountManager, a vesta.Account) error {
		return m.ChangeAccountPassword(ctx, a, a.Password)
	})
	accountSyncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Show the account as known by the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountOperation(cmd, "sync", func(ctx context.Context, m vesta.AccountManager, a vesta.Account) error {
				synced, err := m.SynchronizeAccount(ctx, a)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "username=%s domain=%s package=%s\n", synced.Username, synced.Domain, synced.Package.Name)
				return nil
			})
		},
	}
)

func usernameFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&accountUsername, "username", "", "Account username (required)")
	cobra.CheckErr(cmd.MarkFlagRequired("username"))
}

func init() {
	for _, cmd := range []*cobra.Command{
		accountCreateCmd,
		accountSuspendCmd,
		accountUnsuspendCmd,
		accountCancelCmd,
		accountChangePackageCmd,
		accountChangePasswordCmd,
		accountSyncCmd,
	} {
		usernameFlag(cmd)
		accountCmd.AddCommand(cmd)
	}

	accountCreateCmd.Flags().StringVar(&accountPassword, "password", "", "Account password (required)")
	accountCreateCmd.Flags().StringVar(&accountDomain, "domain", "", "Primary domain of the account (required)")
	accountCreateCmd.Flags().StringVar(&accountPackage, "package", "", fmt.Sprintf("Hosting package (default %q)", defaultPackage))
	accountCreateCmd.Flags().StringVar(&accountEmail, "email", "", "Contact email of the account owner (required)")
	accountCreateCmd.Flags().StringVar(&accountFullName, "name", "", "Full name of the account owner")
	for _, name := range []string{"password", "domain", "email"} {
		cobra.CheckErr(accountCreateCmd.MarkFlagRequired(name))
	}

	accountChangePackageCmd.Flags().StringVar(&accountPackage, "package", "", "New hosting package (required)")
	cobra.CheckErr(accountChangePackageCmd.MarkFlagRequired("package"))

	accountChangePasswordCmd.Flags().StringVar(&accountPassword, "password", "", "New account password (required)")
	cobra.CheckErr(accountChangePasswordCmd.MarkFlagRequired("password"))

	accountSyncCmd.Flags().StringVar(&accountDomain, "domain", "", "Primary domain of the account")
	accountSyncCmd.Flags().StringVar(&accountPackage, "package", "", "Hosting package of the account")

	rootCmd.AddCommand(accountCmd)
}
