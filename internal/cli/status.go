package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/clipsync/internal/syncerr"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured server and whether it is reachable",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%-10s %s\n", "Config:", s.path)
	if s.cfg.ServerURL == "" {
		fmt.Fprintf(out, "%-10s %s\n", "Server:", warning("not configured"))
		return nil
	}

	client := s.client()
	fmt.Fprintf(out, "%-10s %s\n", "Server:", bold(client.BaseURL()))
	fmt.Fprintf(out, "%-10s %s\n", "Instance:", dim(client.InstanceID()))

	ok, err := client.Probe(cmd.Context())
	if ok {
		fmt.Fprintf(out, "%-10s %s\n", "Status:", statusOK("connected"))
		return nil
	}
	reason := "unreachable"
	if kind := syncerr.KindOf(err); kind != "" {
		reason = fmt.Sprintf("unreachable (%s)", kind)
	}
	fmt.Fprintf(out, "%-10s %s\n", "Status:", statusFail(reason))
	return nil
}
