package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/app"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/config"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/vesta"
)

type contextKey string

const appKey contextKey = "app"

var (
	serverName string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "vestaprov",
	Short: "vestaprov manages hosting accounts on VestaCP/HestiaCP servers",
	Long: `vestaprov provisions hosting accounts on VestaCP/HestiaCP servers
through the panel's remote command API: create, suspend, unsuspend,
cancel, change package and change password.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		provApp := app.New(cfg, verbose)
		ctx := context.WithValue(cmd.Context(), appKey, provApp)
		cmd.SetContext(ctx)

		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", fmt.Sprintf("config file (default is $HOME/%s)", config.DefaultConfigFileName))
	rootCmd.PersistentFlags().StringVar(&serverName, "server", "", "name of the configured server to use")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func getApp(cmd *cobra.Command) *app.App {
	if a, ok := cmd.Context().Value(appKey).(*app.App); ok {
		return a
	}
	return nil
}

// singleManager returns the manager of the one server an account command targets.
func singleManager(provApp *app.App) (*vesta.Manager, string, error) {
	servers, err := provApp.Servers(serverName)
	if err != nil {
		return nil, "", err
	}
	switch len(servers) {
	case 0:
		return nil, "", errors.New("no servers configured")
	case 1:
	default:
		return nil, "", errors.New("multiple servers configured, select one with --server")
	}

	m, err := provApp.Manager(servers[0])
	if err != nil {
		return nil, "", err
	}
	return m, servers[0].Name, nil
}
