// Package config loads CLI configuration and builds the process loggers.
//
// Precedence, highest first: command-line flags, GPHOTOS_* environment
// variables, the config file, built-in defaults. The config file is
// ~/.gphotos-sync.yaml unless overridden with --config.
package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds every setting the commands share.
type Config struct {
	// RootFolder is the local directory the remote collection mirrors into.
	RootFolder string `mapstructure:"root_folder"`

	// ClientSecretFile and TokenFile locate the OAuth2 material.
	ClientSecretFile string `mapstructure:"client_secret_file"`
	TokenFile        string `mapstructure:"token_file"`

	// LogFile, when set, duplicates log output into a rotated file.
	LogFile string `mapstructure:"log_file"`

	// DashboardPort is the WebSocket dashboard listen port.
	DashboardPort int `mapstructure:"dashboard_port"`

	// IncludeVideo also syncs video media.
	IncludeVideo bool `mapstructure:"include_video"`
}

// Load reads configuration from the given file (or the default location when
// empty), layering environment variables over it.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("root_folder", defaultRootFolder())
	v.SetDefault("client_secret_file", "client_secret.json")
	v.SetDefault("token_file", "token.json")
	v.SetDefault("dashboard_port", 8844)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".gphotos-sync")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("GPHOTOS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about; bind each one so env
	// overrides reach the struct.
	for _, key := range []string{
		"root_folder", "client_secret_file", "token_file",
		"log_file", "dashboard_port", "include_video",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; a named one is not.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func defaultRootFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "googlePhotos"
	}
	return home + string(os.PathSeparator) + "googlePhotos"
}

// NewLogger builds a prefixed logger writing to stderr and, when cfg.LogFile
// is set, to a size-rotated log file as well.
func (cfg *Config) NewLogger(prefix string) *log.Logger {
	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
	return log.New(w, prefix, log.LstdFlags)
}
