// SPDX-License-Identifier: MPL-2.0

// Package config loads the run tool's user configuration: viper defaults,
// an optional TOML file at ~/.config/run/config.toml, and RUN_* environment
// overrides, in increasing precedence. The result is plain values; the
// engine never reads configuration ambiently.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// EnvShell overrides the default shell (e.g. RUN_SHELL=bash).
	EnvShell = "RUN_SHELL"
	// EnvNoGlobalMerge disables merging the global ~/.runfile under a
	// project Runfile.
	EnvNoGlobalMerge = "RUN_NO_GLOBAL_MERGE"
)

// Config is the resolved user configuration.
type Config struct {
	// DefaultShell names the interpreter used when a function declares
	// neither a @shell attribute nor a shebang. Empty means the platform
	// default (pwsh on Windows, sh elsewhere).
	DefaultShell string `mapstructure:"default_shell"`
	// NoGlobalMerge disables the global+project Runfile merge.
	NoGlobalMerge bool `mapstructure:"no_global_merge"`
}

// DefaultPath returns the standard config file location,
// ~/.config/run/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".config", "run", "config.toml"), nil
}

// Load resolves configuration from the default file location.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		// No home directory: fall back to defaults and environment.
		return LoadFrom("")
	}
	return LoadFrom(path)
}

// LoadFrom resolves configuration, reading the TOML file at path when it
// exists. A missing file is not an error; a malformed one is.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("default_shell", "")
	v.SetDefault("no_global_merge", false)

	if err := v.BindEnv("default_shell", EnvShell); err != nil {
		return nil, fmt.Errorf("binding %s: %w", EnvShell, err)
	}
	if err := v.BindEnv("no_global_merge", EnvNoGlobalMerge); err != nil {
		return nil, fmt.Errorf("binding %s: %w", EnvNoGlobalMerge, err)
	}

	if path != "" {
		if err := mergeTOMLFile(v, path); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	return &cfg, nil
}

// mergeTOMLFile parses a TOML config file and merges its keys into viper,
// below environment overrides and above defaults.
func mergeTOMLFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	values := make(map[string]any)
	if err := toml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("merging config file %s: %w", path, err)
	}
	return nil
}

// ShellName returns the configured default shell, falling back to the
// platform default for hostOS.
func (c *Config) ShellName(hostOS string) string {
	if c.DefaultShell != "" {
		return c.DefaultShell
	}
	if hostOS == "windows" {
		return "pwsh"
	}
	return "sh"
}
