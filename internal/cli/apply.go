package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaapmarcus/FOSSBilling-vesta/internal/task"
	"github.com/jaapmarcus/FOSSBilling-vesta/internal/task/catalog"
)

var applyFile string

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply an account manifest to a server",
	Long: `Run the account actions listed in a manifest file against one server, one account at a time.
When more than one server is configured, select it with --server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provApp := getApp(cmd)
		provApp.Logger.Info("Starting manifest apply", "file", applyFile)

		manifest, err := task.LoadManifest(applyFile)
		if err != nil {
			return err
		}

		plan, err := task.PlanManifest(manifest, catalog.Sections()...)
		if err != nil {
			return fmt.Errorf("planning tasks: %w", err)
		}
		if len(plan.Unknown) > 0 {
			provApp.Logger.Warn("Ignoring unknown manifest keys", "keys", plan.Unknown)
		}
		tasks := plan.Tasks
		if len(tasks) == 0 {
			provApp.Logger.Info("No tasks to apply")
			return nil
		}

		m, srv, err := singleManager(provApp)
		if err != nil {
			return err
		}

		provApp.Logger.Info("Applying manifest to server", "server", srv, "tasks", len(tasks))
		runner := task.NewRunner(provApp.Logger.With("server", srv))
		if err := runner.Run(cmd.Context(), m, tasks...); err != nil {
			provApp.Logger.Error("Manifest applied with failures", "server", srv)
			return fmt.Errorf("server %s: %w", srv, err)
		}
		provApp.Logger.Info("Manifest applied successfully", "server", srv)
		return nil
	},
}

func init() {
	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "Manifest file (required)")
	cobra.CheckErr(applyCmd.MarkFlagRequired("file"))
	rootCmd.AddCommand(applyCmd)
}
