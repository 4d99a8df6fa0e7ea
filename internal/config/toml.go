// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Check CheckConfig `toml:"check"`
	Fetch FetchConfig `toml:"fetch"`
	Store StoreConfig `toml:"store"`
}

// CheckConfig maps round-trip check settings.
type CheckConfig struct {
	Workers *int    `toml:"workers"`
	Record  *bool   `toml:"record"`
	FailDir *string `toml:"fail-dir"`
}

// FetchConfig maps download settings.
type FetchConfig struct {
	Dir       *string `toml:"dir"`
	RateLimit *int    `toml:"rate-limit"`
	Workers   *int    `toml:"workers"`
}

// StoreConfig maps the check history database location.
type StoreConfig struct {
	Path *string `toml:"path"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// DefaultTemplate is written by `osucodec config` when no file exists yet.
func DefaultTemplate() string {
	return `# osucodec configuration

[check]
# workers = 4
# record = true
# fail-dir = "/tmp/osucodec-failures"

[fetch]
# dir = "."
# rate-limit = 30
# workers = 2

[store]
# path = "/path/to/history.db"
`
}
