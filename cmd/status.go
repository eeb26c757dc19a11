package cmd

import (
	"fmt"

	"deployable-sql/internal/schema"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which objects in the working tree exist on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		dep, exec, err := newDeployer(cfg, nil)
		if err != nil {
			return err
		}
		defer exec.Close()

		fmt.Printf("🔍 Inspecting %s on %s\n", cfg.Database.Name, cfg.Database.Host)
		states, err := dep.Status(cmd.Context(),
			schema.KindTable,
			schema.KindView,
			schema.KindJob,
			schema.KindFunction,
			schema.KindStoredProcedure,
			schema.KindPermission,
		)
		if err != nil {
			return err
		}
		printStatus(states)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
}
