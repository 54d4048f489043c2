// Package config loads kboard's settings: built-in defaults, overlaid by the
// user's YAML file, overlaid by command-line flags in the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/renato0307/kboard/internal/logging"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir

const (
	userConfigDir  = ".config/kboard"
	configFileName = "config.yaml"
)

// UserConfigPath returns ~/.config/kboard/config.yaml
func UserConfigPath() (string, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, userConfigDir, configFileName), nil
}

// Load layers the file at path over the defaults. An empty path means the
// user config file, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	config := Default(home)

	explicit := path != ""
	if !explicit {
		if path, err = UserConfigPath(); err != nil {
			return Config{}, fmt.Errorf("failed to resolve home directory: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !explicit:
		return config, nil
	default:
		return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}

	if err := decode(data, &config); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	config.expandHome(home)

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// decode overlays data onto config. Keys absent from data keep their
// current value; unknown keys are rejected.
func decode(data []byte, config *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(config)
}

func (c *Config) expandHome(home string) {
	c.Kubeconfig.StorageDir = expand(c.Kubeconfig.StorageDir, home)
	c.Log.File = expand(c.Log.File, home)
}

func expand(path, home string) string {
	if path == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return path
}

// Validate checks values that cannot be repaired silently
func (c Config) Validate() error {
	var errs []error

	if c.Kubeconfig.StorageDir == "" {
		errs = append(errs, errors.New("kubeconfig.storageDir cannot be empty"))
	}
	if c.Client.Timeout < 0 {
		errs = append(errs, fmt.Errorf("client.timeout must not be negative, got %s", c.Client.Timeout))
	}
	if c.Client.QPS < 0 || c.Client.Burst < 0 {
		errs = append(errs, errors.New("client.qps and client.burst must not be negative"))
	}
	if c.UI.HotspotThreshold < 0 || c.UI.HotspotThreshold > 100 {
		errs = append(errs, fmt.Errorf("ui.hotspotThreshold must be within 0-100, got %g", c.UI.HotspotThreshold))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}

	return errors.Join(errs...)
}

// Logging converts the log section for logging.Init
func (c LogConfig) Logging() (logging.Config, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return logging.Config{}, err
	}
	format, err := logging.ParseFormat(c.Format)
	if err != nil {
		return logging.Config{}, err
	}
	return logging.Config{
		FilePath:   c.File,
		Level:      level,
		Format:     format,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}, nil
}

// Write saves c as YAML at path, creating parent directories
func Write(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
