package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/clipsync/internal/config"
	"github.com/thruflo/clipsync/internal/remote"
)

var connectForce bool

var connectCmd = &cobra.Command{
	Use:   "connect <url>",
	Short: "Check a server and make it the default",
	Long: `Probes the server at <url> and, if it answers, saves it as server_url
and adds it to the recent servers list.`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().BoolVarP(&connectForce, "force", "f", false, "save the server even if it does not answer")
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	url := config.NormalizeURL(args[0])
	if err := config.ValidateServerURL(url); err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	out := cmd.OutOrStdout()
	client := remote.NewClient(url,
		remote.WithTimeout(s.cfg.Sync.RequestTimeout()),
		remote.WithLogger(s.logger.With("component", "remote")))
	if ok, err := client.Probe(cmd.Context()); !ok {
		if !connectForce {
			return fmt.Errorf("server %s did not answer: %w", url, err)
		}
		fmt.Fprintln(out, warning(fmt.Sprintf("server did not answer (%v), saving anyway", err)))
	}

	// Save on top of the file as written; s.cfg carries the global flags.
	cfg, err := config.Load(s.path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ServerURL = url
	config.AddRecentServer(cfg, url)
	if err := config.Save(s.path, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(out, statusOK("connected to "+bold(url)))
	return nil
}
