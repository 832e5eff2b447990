package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/thruflo/clipsync/internal/clipboard"
	"github.com/thruflo/clipsync/internal/config"
	"github.com/thruflo/clipsync/internal/logging"
	"github.com/thruflo/clipsync/internal/remote"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	configPath string
	serverURL  string
	logLevel   string
	noColor    bool
)

// newLocalClipboard builds the local clipboard adapter.
// It can be overridden in tests.
var newLocalClipboard = func() clipboard.Clipboard {
	return clipboard.NewOS()
}

// newInstanceID, when set, fixes the instance ID sent to the server.
// It can be overridden in tests.
var newInstanceID func() string

var rootCmd = &cobra.Command{
	Use:   "clipsync",
	Short: "Keep clipboards on several machines in sync",
	Long: `Clipsync mirrors the system clipboard through a shared HTTP store.
Run "clipsync serve" on one machine, "clipsync connect <url>" on each
machine that should share it, then "clipsync run".`,
	SilenceUsage:      true,
	PersistentPreRunE: setupOutput,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("clipsync version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: <user config dir>/clipsync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL, overrides the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setupOutput(cmd *cobra.Command, _ []string) error {
	if noColor || !isTerminal(cmd.OutOrStdout()) {
		color.NoColor = true
	}
	return nil
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// settings is the resolved configuration for one command invocation.
type settings struct {
	path   string
	cfg    *config.Config
	logger *logging.Logger
}

// loadSettings reads the config file and applies the global flags.
func loadSettings() (*settings, error) {
	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if serverURL != "" {
		cfg.ServerURL = config.NormalizeURL(serverURL)
		if err := config.ValidateServerURL(cfg.ServerURL); err != nil {
			return nil, fmt.Errorf("invalid --server: %w", err)
		}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New()
	logger.SetLevel(level)

	return &settings{path: path, cfg: cfg, logger: logger}, nil
}

// client builds a remote client for the configured server.
func (s *settings) client() *remote.Client {
	opts := []remote.ClientOption{
		remote.WithTimeout(s.cfg.Sync.RequestTimeout()),
		remote.WithLogger(s.logger.With("component", "remote")),
	}
	if newInstanceID != nil {
		opts = append(opts, remote.WithInstanceID(newInstanceID()))
	}
	return remote.NewClient(s.cfg.ServerURL, opts...)
}

// requireServer fails when no server URL is configured.
func (s *settings) requireServer() error {
	if s.cfg.ServerURL == "" {
		return fmt.Errorf("no server configured: run %q or pass --server", "clipsync connect <url>")
	}
	return nil
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}
