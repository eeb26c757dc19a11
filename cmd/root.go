package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"deployable-sql/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Logger  = slog.Default()
)

var RootCmd = &cobra.Command{
	Use:   "deploy-sql",
	Short: "Deploy source-controlled SQL objects to a database",
	Long: `
     _            _                 ____   ___  _
  __| | ___ _ __ | | ___  _   _    / ___| / _ \| |
 / _' |/ _ \ '_ \| |/ _ \| | | |___\___ \| | | | |
| (_| |  __/ |_) | | (_) | |_| |___|___) | |_| | |___
 \__,_|\___| .__/|_|\___/ \__, |   |____/ \__\_\_____|
           |_|            |___/

Keep views, functions, stored procedures and agent jobs under source
control and deploy them like code.
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		Logger = logging.Setup(viper.GetString("log.level"), viper.GetString("log.file"))
		slog.SetDefault(Logger)
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.deploy_sql.yml)")
	RootCmd.PersistentFlags().String("root", ".", "working tree holding the object folders")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("log-file", "", "also write logs to this file (rotated)")

	viper.BindPFlag("deploy.root", RootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.file", RootCmd.PersistentFlags().Lookup("log-file"))

	setDefaults()
}

// initConfig looks for .deploy_sql.yml next to the binary, in the working
// directory and in $HOME, in that order, unless --config names a file.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		for _, dir := range configDirs() {
			viper.AddConfigPath(dir)
		}
		viper.SetConfigName(".deploy_sql")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DEPLOYABLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindLegacyEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Config:", viper.ConfigFileUsed())
	}
}

func configDirs() []string {
	var dirs []string
	if ex, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(ex))
	}
	dirs = append(dirs, ".")
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	return dirs
}
