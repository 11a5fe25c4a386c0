// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

// package config loads the client configuration from, in order of
// precedence: command-line flags, PRESENCE_* environment variables and
// a presence.yaml file looked up in the user config directory, the
// system config directory and the current directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the full client configuration.
type Config struct {
	API struct {
		BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	} `mapstructure:"api" yaml:"api"`
	Language string `mapstructure:"language" yaml:"language"`
	Session  struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"session" yaml:"session"`
}

// Defaults returns the default configuration values keyed by viper path.
func Defaults() map[string]any {
	return map[string]any{
		"api.base_url": "http://localhost:5000",
		"language":     "fr",
		"session.path": DefaultSessionPath(),
	}
}

// DefaultSessionPath returns the location of the persisted session file.
func DefaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "presence-session.json"
	}
	return filepath.Join(dir, "presence", "session.json")
}

// getConfigPath returns the full path for the configuration file.
func getConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Presence")
		default: // Linux, macOS, etc.
			configDir = "/etc/presence"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "presence")
	}

	return filepath.Join(configDir, "presence.yaml"), nil
}

// LoadConfig reads the configuration for cmd, merging defaults, config
// file, environment and bound flags. An explicit config file path (from
// the --config flag) takes precedence over the search paths. The
// returned path is the config file actually loaded, "" when the client
// is running on defaults only.
func LoadConfig(cmd *cobra.Command, defaults map[string]any, explicitPath *string) (Config, string, error) {
	var c Config
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("presence")
	v.SetConfigType("yaml")

	if explicitPath != nil {
		v.SetConfigFile(*explicitPath)
	}

	if userConfigPath, err := getConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := getConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the defaults carry the client.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, "", err
		}
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("presence")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, "", err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, "", err
	}

	// Empty values in a user's config file fall back to defaults so the
	// client always has a usable base URL and session path.
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults["api.base_url"].(string)
	}
	if c.Language == "" {
		c.Language = defaults["language"].(string)
	}
	if c.Session.Path == "" {
		c.Session.Path = defaults["session.path"].(string)
	}

	return c, v.ConfigFileUsed(), nil
}

// WriteConfigFile persists c as presence.yaml at the standard location.
func WriteConfigFile(c *Config, system bool) error {
	path, err := getConfigPath(system)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("could not marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
