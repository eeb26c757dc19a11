package cmd

import (
	"fmt"

	"deployable-sql/internal/layout"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var noGit bool

var setupCmd = &cobra.Command{
	Use:   "setup <user> <db>",
	Short: "Create the object folders and a grants script for the deploy user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := layout.Setup(layout.SetupOptions{
			Root:    viper.GetString("deploy.root"),
			User:    args[0],
			DB:      args[1],
			Schema:  viper.GetString("deploy.schema"),
			GitInit: !noGit,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Review %s and run it as an administrator.\n", layout.GrantsFile)
		fmt.Println("All set!")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(setupCmd)
	setupCmd.Flags().BoolVar(&noGit, "no-git", false, "do not run git init")
}
