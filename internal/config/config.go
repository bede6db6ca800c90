// Package config implements TOML configuration loading for g-to-lan with a
// three-layer override chain: built-in defaults -> config file ->
// environment variables. CLI flags (handled by the caller) beat all three.
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Account AccountConfig `toml:"account"`
	Network NetworkConfig `toml:"network"`
	Logging LoggingConfig `toml:"logging"`
}

// AccountConfig holds the cloud-drive account credentials. All three fields
// are required for a credential login; a run that restores a persisted
// session can proceed without them.
type AccountConfig struct {
	UID      string `toml:"uid"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// NetworkConfig holds the remote endpoints and the browser-like User-Agent
// the informal API expects. Overriding the URLs is only useful for tests
// and for mirror deployments of the service.
type NetworkConfig struct {
	BaseURL   string `toml:"base_url"`
	LoginURL  string `toml:"login_url"`
	DiskURL   string `toml:"disk_url"`
	UserAgent string `toml:"user_agent"`
}

// LoggingConfig controls diagnostic log output.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Production endpoint defaults.
const (
	defaultBaseURL   = "https://up.woozooo.com"
	defaultLoginURL  = "https://up.woozooo.com/mlogin.php"
	defaultDiskURL   = "https://up.woozooo.com/mydisk.php"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.39 (KHTML, like Gecko) Chrome/89.0.4389.111 Safari/537.39"
)

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			BaseURL:   defaultBaseURL,
			LoginURL:  defaultLoginURL,
			DiskURL:   defaultDiskURL,
			UserAgent: defaultUserAgent,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
