package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads the TOML config file at path and merges it over the defaults.
// A missing file is not an error — first runs and cookie-only runs work
// without one. Unknown keys are ignored so newer config files keep working
// with older binaries.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	// An explicitly empty endpoint in the file falls back to the default
	// rather than producing unusable request URLs.
	def := Default()
	if cfg.Network.BaseURL == "" {
		cfg.Network.BaseURL = def.Network.BaseURL
	}

	if cfg.Network.LoginURL == "" {
		cfg.Network.LoginURL = def.Network.LoginURL
	}

	if cfg.Network.DiskURL == "" {
		cfg.Network.DiskURL = def.Network.DiskURL
	}

	if cfg.Network.UserAgent == "" {
		cfg.Network.UserAgent = def.Network.UserAgent
	}

	return cfg, nil
}
