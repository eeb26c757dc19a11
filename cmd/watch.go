package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deployable-sql/internal/engine"
	"deployable-sql/internal/schema"

	"github.com/spf13/cobra"
)

var debounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-sync object files whenever they change",
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

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := engine.NewWatcher(dep, debounce, Logger)
		w.OnReady = func() {
			fmt.Printf("👀 Watching %s (Ctrl+C to stop)\n", dep.Root())
		}
		w.OnSync = func(res schema.SyncResult, err error) {
			printReport([]schema.SyncResult{res})
		}
		return w.Run(ctx)
	},
}

func init() {
	RootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "wait this long for more changes before syncing")
}
