package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abcdream-Lary/g-to-lan/internal/config"
	"github.com/abcdream-Lary/g-to-lan/internal/console"
	"github.com/abcdream-Lary/g-to-lan/internal/lanzou"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagTasksPath  string
	flagVerbose    bool
	flagQuiet      bool
)

// cfg holds the effective configuration loaded by PersistentPreRunE. It is
// available to all subcommands after the root pre-run phase completes.
var cfg *config.Config

// httpClientTimeout bounds GitHub API and asset-download requests so a
// hung connection never stalls a batch run indefinitely.
const httpClientTimeout = 30 * time.Second

// defaultHTTPClient returns an HTTP client with a sensible timeout.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: httpClientTimeout}
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "g-to-lan",
		Short:   "Mirror GitHub release assets to a Lanzou cloud drive",
		Long:    "g-to-lan resolves the latest GitHub release for each configured repository\nand mirrors its downloadable assets into a folder on a Lanzou cloud drive.",
		Version: version,
		// Silence Cobra's default error/usage printing; errors are rendered
		// by exitOnError.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagTasksPath, "tasks", "", "task list file path")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLsCmd())

	return cmd
}

// loadConfig reads the config file (or defaults when absent) and overlays
// environment variables. CLI flags win over both.
func loadConfig() error {
	path := flagConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	loaded, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	config.ApplyEnv(loaded)
	cfg = loaded

	return nil
}

// tasksPath resolves the task list location: --tasks flag, then the
// default next to the config file.
func tasksPath() string {
	if flagTasksPath != "" {
		return flagTasksPath
	}

	return config.DefaultTasksPath()
}

// buildLogger creates an slog.Logger configured by the loaded config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if cfg != nil {
		switch cfg.Logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildConsole creates the user-facing status printer.
func buildConsole() *console.Printer {
	return console.New(os.Stdout, flagQuiet)
}

// newSession constructs an unauthenticated drive session from the loaded
// configuration.
func newSession(logger *slog.Logger, printer *console.Printer) (*lanzou.Session, error) {
	return lanzou.NewSession(lanzou.Options{
		BaseURL:    cfg.Network.BaseURL,
		LoginURL:   cfg.Network.LoginURL,
		DiskURL:    cfg.Network.DiskURL,
		UserAgent:  cfg.Network.UserAgent,
		UID:        cfg.Account.UID,
		Username:   cfg.Account.Username,
		Password:   cfg.Account.Password,
		CookiePath: config.DefaultCookiePath(),
		Logger:     logger,
		Console:    printer,
	})
}

// ensureAuth restores a persisted session when possible and falls back to
// a credential login.
func ensureAuth(ctx context.Context, sess *lanzou.Session) error {
	if sess.RestoreSession(ctx) {
		return nil
	}

	if err := sess.Login(ctx); err != nil {
		if errors.Is(err, lanzou.ErrAuth) {
			return fmt.Errorf("%w (set credentials in %s or via %s/%s/%s)",
				err, config.DefaultPath(), config.EnvUID, config.EnvUsername, config.EnvPassword)
		}

		return err
	}

	return nil
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
