// Package config loads application configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Storage driver names.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type Config struct {
	App struct {
		Env      string
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"app"`

	Storage struct {
		// Driver selects the persistence backend: "file" or "postgres".
		Driver string
		// DataDir holds the collection JSON files for the file driver.
		DataDir string `mapstructure:"data_dir"`
	} `mapstructure:"storage"`

	Postgres struct {
		DSN      string
		MaxConns int32 `mapstructure:"max_conns"`
	} `mapstructure:"postgres"`

	Ledger struct {
		// AllowNegative disables the clamp at zero when applying and
		// rolling back stock movements. Off by default.
		AllowNegative bool `mapstructure:"allow_negative"`
	} `mapstructure:"ledger"`
}

// Load reads the config file at path. Environment variables with the
// STOCKBOOK_ prefix override file values.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("STOCKBOOK")
	v.AutomaticEnv()

	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("postgres.max_conns", 5)
	v.SetDefault("ledger.allow_negative", false)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	var c Config
	c.App.Env = "development"
	c.App.LogLevel = "info"
	c.Storage.Driver = DriverFile
	c.Storage.DataDir = "data"
	c.Postgres.MaxConns = 5
	return c
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case DriverFile, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverPostgres && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres driver requires postgres.dsn")
	}
	return nil
}
