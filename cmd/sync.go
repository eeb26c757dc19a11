package cmd

import (
	"context"
	"errors"
	"fmt"

	"deployable-sql/internal/dialect"
	"deployable-sql/internal/engine"
	"deployable-sql/internal/schema"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// syncFlags select what a sync run deploys.
type syncFlags struct {
	filename  string
	test      bool
	all       bool
	views     bool
	jobs      bool
	sps       bool
	functions bool
	tables    bool
}

var (
	syncOpts syncFlags
	autoOpts syncFlags
)

var syncCmd = &cobra.Command{
	Use:   "sync <user> <pwd> <host> <db>",
	Short: "Sync object files using the given credentials",
	Args:  cobra.ExactArgs(4),
	PreRun: func(cmd *cobra.Command, args []string) {
		bindSyncFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		cfg.Database.User = args[0]
		cfg.Database.Password = args[1]
		cfg.Database.Host = args[2]
		cfg.Database.Name = args[3]
		return runSync(cmd.Context(), cfg, syncOpts)
	},
}

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Sync object files using credentials from DEPLOYABLE_* variables or the config file",
	Args:  cobra.NoArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindSyncFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		return runSync(cmd.Context(), cfg, autoOpts)
	},
}

func init() {
	RootCmd.AddCommand(syncCmd)
	RootCmd.AddCommand(autoCmd)
	addSyncFlags(syncCmd, &syncOpts)
	addSyncFlags(autoCmd, &autoOpts)
}

func addSyncFlags(cmd *cobra.Command, o *syncFlags) {
	f := cmd.Flags()
	f.StringVarP(&o.filename, "filename", "f", "", "a single file to sync (name or folder/name)")
	f.BoolVar(&o.test, "test", false, "test the connection")
	f.BoolVar(&o.all, "all", false, "rebuild views, jobs, functions and stored procedures")
	f.BoolVar(&o.views, "views", false, "rebuild only views")
	f.BoolVar(&o.jobs, "jobs", false, "rebuild the jobs folder")
	f.BoolVar(&o.sps, "sps", false, "rebuild stored procedures")
	f.BoolVar(&o.functions, "functions", false, "rebuild the functions folder")
	f.BoolVar(&o.tables, "tables", false, "create missing tables (existing tables are never dropped)")

	f.String("schema", "cu", "schema that qualifies every object")
	f.Bool("keep-going", false, "continue past failures and report them together")
	f.Bool("permissive", false, "skip files that cannot be classified instead of failing")
	f.Bool("strict-symbols", false, "reject unknown job action and interval names")
}

// bindSyncFlags binds the running command's flags; sync and auto share keys.
func bindSyncFlags(f *pflag.FlagSet) {
	viper.BindPFlag("deploy.schema", f.Lookup("schema"))
	viper.BindPFlag("deploy.keep_going", f.Lookup("keep-going"))
	viper.BindPFlag("deploy.permissive", f.Lookup("permissive"))
	viper.BindPFlag("jobs.strict_symbols", f.Lookup("strict-symbols"))
}

// kinds returns the folders selected by the flags, in sync order.
func (o syncFlags) kinds() []schema.ObjectKind {
	var kinds []schema.ObjectKind
	if o.all || o.views {
		kinds = append(kinds, schema.KindView)
	}
	if o.all || o.jobs {
		kinds = append(kinds, schema.KindJob)
	}
	if o.all || o.functions {
		kinds = append(kinds, schema.KindFunction)
	}
	if o.all || o.sps {
		kinds = append(kinds, schema.KindStoredProcedure)
	}
	if o.tables {
		kinds = append([]schema.ObjectKind{schema.KindTable}, kinds...)
	}
	return kinds
}

// newDeployer wires the executor, dialect and options described by cfg.
func newDeployer(cfg *Config, onProgress func(schema.SyncResult)) (*engine.Deployer, *engine.SQLExecutor, error) {
	d, err := dialect.GetDialect(cfg.Database.Driver)
	if err != nil {
		return nil, nil, err
	}
	exec := engine.NewSQLExecutor(d.DriverName(), cfg.DataSource(d), Logger)
	dep := engine.New(exec, d, engine.Options{
		Database:   cfg.Database.Name,
		Schema:     cfg.Deploy.Schema,
		Root:       cfg.Deploy.Root,
		Permissive: cfg.Deploy.Permissive,
		KeepGoing:  cfg.Deploy.KeepGoing,
		Compiler:   cfg.Compiler(),
		OnProgress: onProgress,
	}, Logger)
	return dep, exec, nil
}

func runSync(ctx context.Context, cfg *Config, o syncFlags) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	kinds := o.kinds()
	if !o.test && o.filename == "" && len(kinds) == 0 {
		return errors.New("nothing to do: pass --filename, --all, --views, --jobs, --sps, --functions, --tables or --test")
	}

	var bar *uiprogress.Bar
	dep, exec, err := newDeployer(cfg, func(schema.SyncResult) {
		if bar != nil {
			bar.Incr()
		}
	})
	if err != nil {
		return err
	}
	defer exec.Close()

	fmt.Printf("🚀 Deploying to %s on %s (%s)\n", cfg.Database.Name, cfg.Database.Host, cfg.Database.Driver)

	var results []schema.SyncResult
	switch {
	case o.test:
		if err := dep.Test(ctx); err != nil {
			return err
		}
		fmt.Println("Connection OK")
		return nil
	case o.filename != "":
		var res schema.SyncResult
		res, err = dep.SyncFile(ctx, o.filename)
		results = append(results, res)
	default:
		files, planErr := dep.Plan(kinds...)
		if planErr != nil {
			return planErr
		}
		if len(files) > 0 {
			uiprogress.Start()
			bar = uiprogress.AddBar(len(files)).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(b *uiprogress.Bar) string {
				return "Syncing: "
			})
		}
		results, err = dep.SyncFiles(ctx, files)
		if bar != nil {
			uiprogress.Stop()
		}
	}

	printReport(results)
	if err != nil {
		return err
	}
	fmt.Println("Done!")
	return nil
}
