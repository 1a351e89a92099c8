package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginURLReseller bool

var loginURLCmd = &cobra.Command{
	Use:   "login-url",
	Short: "Print the panel login URL of servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		provApp := getApp(cmd)

		servers, err := provApp.Servers(serverName)
		if err != nil {
			return err
		}
		for _, s := range servers {
			m, err := provApp.Manager(s)
			if err != nil {
				return err
			}
			url := m.LoginURL()
			if loginURLReseller {
				url = m.ResellerLoginURL()
			}
			if len(servers) == 1 {
				fmt.Fprintln(cmd.OutOrStdout(), url)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", s.Name, url)
		}
		return nil
	},
}

func init() {
	loginURLCmd.Flags().BoolVar(&loginURLReseller, "reseller", false, "print the reseller login URL")
	rootCmd.AddCommand(loginURLCmd)
}
