package cmd

import (
	"fmt"
	"time"

	"deployable-sql/internal/job"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	recurrence  string
	jobDatabase string
)

var createJobCmd = &cobra.Command{
	Use:   "create_job <name>",
	Short: "Write a starter job definition to jobs/<name>.yml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := job.WriteTemplate(viper.GetString("deploy.root"), args[0], recurrence, jobDatabase, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Created %s\n", path)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(createJobCmd)
	createJobCmd.Flags().StringVar(&recurrence, "recurrence", job.RecurrenceDaily, "schedule recurrence (daily or weekly)")
	createJobCmd.Flags().StringVar(&jobDatabase, "database", "", "database the job step runs in")
}
