package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	appName   = "nixdex"
	envPrefix = "NIXDEX"
	fileName  = "config"
	fileType  = "yaml"

	indexFileName = "nixdex-index.sqlite"
)

// Keys, matching the flag names they are bound to.
const (
	KeyConfig        = "config"
	KeyIndex         = "index"
	KeyStoreDir      = "store-dir"
	KeyLogLevel      = "log-level"
	KeyLogDev        = "log-dev"
	KeyNixpkgs       = "nixpkgs"
	KeyNixpkgsConfig = "nixpkgs-config"
	KeyRegistry      = "registry"
	KeyEvaluator     = "evaluator"
	KeyNumResults    = "num-results"
	KeyFilterBuilt   = "filter-built"
)

// DefaultNumResults caps fuzzy results when num-results is unset.
const DefaultNumResults = 30

// Config is the resolved configuration shared by all commands.
type Config struct {
	Index         string `mapstructure:"index"`
	StoreDir      string `mapstructure:"store-dir"`
	LogLevel      string `mapstructure:"log-level"`
	LogDev        bool   `mapstructure:"log-dev"`
	Nixpkgs       string `mapstructure:"nixpkgs"`
	NixpkgsConfig string `mapstructure:"nixpkgs-config"`
	Registry      string `mapstructure:"registry"`
	Evaluator     string `mapstructure:"evaluator"`
	NumResults    int    `mapstructure:"num-results"`
	FilterBuilt   bool   `mapstructure:"filter-built"`
}

// Dir returns the nixdex config directory ($XDG_CONFIG_HOME/nixdex).
func Dir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// FilePath returns the default config file path.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// DefaultIndexPath returns $XDG_DATA_HOME/nixdex-index.sqlite.
func DefaultIndexPath() string {
	return filepath.Join(xdg.DataHome, indexFileName)
}

// Load resolves configuration from flags, NIXDEX_* environment variables and
// the config file, in that order of precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyIndex, DefaultIndexPath())
	v.SetDefault(KeyStoreDir, "/nix/store")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogDev, false)
	v.SetDefault(KeyEvaluator, "nix-env")
	v.SetDefault(KeyNumResults, DefaultNumResults)
	v.SetDefault(KeyFilterBuilt, false)
	for _, k := range []string{KeyConfig, KeyNixpkgs, KeyNixpkgsConfig, KeyRegistry} {
		v.SetDefault(k, "")
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	file := v.GetString(KeyConfig)
	explicit := file != ""
	if !explicit {
		file = FilePath()
	}
	v.SetConfigFile(file)
	v.SetConfigType(fileType)
	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine.
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
