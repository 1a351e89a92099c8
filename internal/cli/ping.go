package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/vesta"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Verify connection to servers",
	Long:  `Authenticate against every configured server by listing its users. Remote state is not changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provApp := getApp(cmd)
		provApp.Logger.Info("Starting connection verification")

		servers, err := provApp.Servers(serverName)
		if err != nil {
			return err
		}
		if len(servers) == 0 {
			provApp.Logger.Warn("No servers configured")
			return nil
		}

		targets := make([]pingTarget, 0, len(servers))
		for _, s := range servers {
			m, err := provApp.Manager(s)
			if err != nil {
				return err
			}
			targets = append(targets, pingTarget{name: s.Name, manager: m})
		}

		if failed := verifyServers(cmd.Context(), provApp.Logger, targets); failed > 0 {
			return fmt.Errorf("%d of %d servers failed verification", failed, len(targets))
		}
		return nil
	},
}

type pingTarget struct {
	name    string
	manager vesta.AccountManager
}

// verifyServers tests every target and returns the number of failures.
func verifyServers(ctx context.Context, logger *slog.Logger, targets []pingTarget) int {
	failed := 0
	for _, target := range targets {
		logger.Info("Checking server", "server", target.name, "url", target.manager.LoginURL())
		if err := target.manager.TestConnection(ctx); err != nil {
			logger.Error("Verification failed", "server", target.name, "error", err)
			failed++
			continue
		}
		logger.Info("Verification successful", "server", target.name)
	}
	return failed
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
