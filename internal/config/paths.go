package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Application directory name under the XDG config home.
const appName = "g-to-lan"

// DefaultPath returns the default config file location,
// e.g. ~/.config/g-to-lan/config.toml on Linux.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// DefaultCookiePath returns the default location for the persisted session
// cookie file, e.g. ~/.config/g-to-lan/cookies.json on Linux.
func DefaultCookiePath() string {
	return filepath.Join(xdg.ConfigHome, appName, "cookies.json")
}

// DefaultTasksPath returns the default task-list location: a
// download_tasks.yaml next to the config file.
func DefaultTasksPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "download_tasks.yaml")
}
