package cmd

import (
	"fmt"

	"deployable-sql/internal/dialect"
	"deployable-sql/internal/job"

	"github.com/spf13/viper"
)

type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	DSN      string `mapstructure:"dsn"`
}

type DeployConfig struct {
	Schema     string `mapstructure:"schema"`
	Root       string `mapstructure:"root"`
	Permissive bool   `mapstructure:"permissive"`
	KeepGoing  bool   `mapstructure:"keep_going"`
}

type JobsConfig struct {
	Database       string `mapstructure:"database"`
	NotifyOperator string `mapstructure:"notify_operator"`
	StrictSymbols  bool   `mapstructure:"strict_symbols"`
}

type Config struct {
	Database DBConfig     `mapstructure:"database"`
	Deploy   DeployConfig `mapstructure:"deploy"`
	Jobs     JobsConfig   `mapstructure:"jobs"`
}

func setDefaults() {
	viper.SetDefault("database.driver", "sqlserver")
	viper.SetDefault("database.host", "")
	viper.SetDefault("database.port", 0)
	viper.SetDefault("database.user", "")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.name", "")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("deploy.schema", "cu")
	viper.SetDefault("deploy.root", ".")
	viper.SetDefault("deploy.permissive", false)
	viper.SetDefault("deploy.keep_going", false)
	viper.SetDefault("jobs.database", "msdb")
	viper.SetDefault("jobs.notify_operator", "")
	viper.SetDefault("jobs.strict_symbols", false)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")
}

// bindLegacyEnv keeps the short variable names the auto mode has always read.
func bindLegacyEnv() {
	viper.BindEnv("database.user", "DEPLOYABLE_USR", "DEPLOYABLE_DATABASE_USER")
	viper.BindEnv("database.password", "DEPLOYABLE_PWD", "DEPLOYABLE_DATABASE_PASSWORD")
	viper.BindEnv("database.host", "DEPLOYABLE_HOST", "DEPLOYABLE_DATABASE_HOST")
	viper.BindEnv("database.name", "DEPLOYABLE_DB", "DEPLOYABLE_DATABASE_NAME")
}

// LoadConfig returns the merged flag, environment, config file and default settings.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Credentials() dialect.Credentials {
	return dialect.Credentials{
		User:     c.Database.User,
		Password: c.Database.Password,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Database: c.Database.Name,
	}
}

// DataSource returns the configured DSN, or one built by the dialect.
func (c *Config) DataSource(d dialect.Dialect) string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return d.DSN(c.Credentials())
}

// Validate checks the connection settings a sync needs.
func (c *Config) Validate() error {
	if c.Database.DSN != "" {
		return nil
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required (argument, DEPLOYABLE_HOST or database.host)")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required (argument, DEPLOYABLE_USR or database.user)")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required (argument, DEPLOYABLE_DB or database.name)")
	}
	return nil
}

func (c *Config) Compiler() *job.Compiler {
	return &job.Compiler{
		Database:       c.Jobs.Database,
		NotifyOperator: c.Jobs.NotifyOperator,
		StrictSymbols:  c.Jobs.StrictSymbols,
	}
}
