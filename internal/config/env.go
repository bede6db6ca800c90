package config

import "os"

// Environment variable names. Environment overrides beat the config file;
// they exist so CI mirror jobs can inject credentials without writing them
// to disk.
const (
	EnvUID      = "G2L_UID"
	EnvUsername = "G2L_USERNAME"
	EnvPassword = "G2L_PASSWORD"
	EnvBaseURL  = "G2L_BASE_URL"
)

// ApplyEnv overlays environment variable values onto cfg. Unset variables
// leave the existing value untouched.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvUID); v != "" {
		cfg.Account.UID = v
	}

	if v := os.Getenv(EnvUsername); v != "" {
		cfg.Account.Username = v
	}

	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Account.Password = v
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.Network.BaseURL = v
	}
}
