package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/humanzai/cpdash/internal/api"
	"github.com/humanzai/cpdash/internal/config"
	"github.com/humanzai/cpdash/internal/db"
)

var (
	baseURL    string
	appToken   string
	configPath string
	envFile    string
	dbPath     string
	timeout    time.Duration
	colorMode  string
	verbose    bool
)

// Resolved by the root command before any subcommand runs
var (
	cfg    *config.Config
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

var rootCmd = &cobra.Command{
	Use:   "cpdash",
	Short: "Release dashboard for a CodePush-style update service",
	Long: `Inspect and manage over-the-air releases from the terminal.

cpdash lists apps and deployments, shows release history with install
metrics, edits the latest release, rolls deployments back, and keeps a
local journal of every change it makes.`,
	PersistentPreRunE: setup,
	// Execute prints the error
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&baseURL, "base-url", "", "Deployment service URL (env "+config.EnvBaseURL+")")
	flags.StringVar(&appToken, "token", "", "Bearer token for the service (env "+config.EnvAppToken+")")
	flags.StringVar(&configPath, "config", "", "JSON config file (default: ~/.config/cpdash/config.json)")
	flags.StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading "+config.EnvBaseURL+" and friends")
	flags.StringVar(&dbPath, "db", "", "Journal database path (default: ~/.local/share/cpdash/journal.db)")
	flags.DurationVar(&timeout, "timeout", 0, "Request timeout (default 15s)")
	flags.StringVar(&colorMode, "color", "auto", "Colorize output: auto, always or never")
	flags.BoolVarP(&verbose, "verbose", "V", false, "Log requests to stderr")
}

// setup resolves configuration and logging for every subcommand
func setup(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if err := applyColorMode(colorMode); err != nil {
		return err
	}

	loaded, err := config.Load(config.Options{ConfigPath: configPath, EnvFile: envFile})
	if err != nil {
		return err
	}

	// Flags win over files and environment
	if baseURL != "" {
		loaded.BaseURL = baseURL
	}
	if appToken != "" {
		loaded.AppToken = appToken
	}
	if timeout > 0 {
		loaded.Timeout = timeout
	}
	if dbPath != "" {
		loaded.DBPath = dbPath
	}

	cfg = loaded
	if cfg.ConfigFileUsed != "" {
		logger.Debug("loaded config", "path", cfg.ConfigFileUsed)
	}
	return nil
}

func applyColorMode(mode string) error {
	switch mode {
	case "auto":
	case "always":
		lipgloss.SetColorProfile(termenv.ANSI256)
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	default:
		return fmt.Errorf("invalid --color value %q (want auto, always or never)", mode)
	}
	return nil
}

// noColor reports whether output to w should be plain text
func noColor(w io.Writer) bool {
	switch colorMode {
	case "always":
		return false
	case "never":
		return true
	}
	return !isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// newClient validates the resolved configuration and builds an API client
func newClient() (*api.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return api.New(cfg.BaseURL, cfg.AppToken, api.WithTimeout(cfg.Timeout), api.WithLogger(logger))
}

// openJournal opens the local action journal
func openJournal() (*db.DB, error) {
	database, err := db.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return database, nil
}

// operator names the local user in journal entries
func operator() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
