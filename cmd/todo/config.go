package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ytakahashi/todo-app/internal/controller"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyAPIURL    = "api_url"
	cfgKeyMinLength = "min_length"
	cfgKeyLogLevel  = "log_level"

	defaultAPIURL = "http://localhost:8080"
)

// loadConfig reads config.yaml with Viper. Values come, in order of
// precedence, from flags, TODO_* environment variables, the config file and
// the defaults. A missing config.yaml is not an error unless it was named
// explicitly with --config.
func loadConfig(configFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyAPIURL, defaultAPIURL)
	v.SetDefault(cfgKeyMinLength, controller.DefaultMinDraftLength)
	v.SetDefault(cfgKeyLogLevel, "warn")

	v.SetEnvPrefix("TODO")
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		cfgKeyAPIURL:   "api-url",
		cfgKeyLogLevel: "log-level",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// configDir is $XDG_CONFIG_HOME/todo, falling back to the OS user config
// directory.
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "todo")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "todo")
}
