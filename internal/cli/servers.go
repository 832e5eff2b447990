package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List recently used servers",
	Args:  cobra.NoArgs,
	RunE:  runServers,
}

func init() {
	rootCmd.AddCommand(serversCmd)
}

func runServers(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(s.cfg.RecentServers) == 0 {
		fmt.Fprintln(out, "No recent servers.")
		return nil
	}

	for _, url := range s.cfg.RecentServers {
		if url == s.cfg.ServerURL {
			fmt.Fprintf(out, "%s %s\n", success("*"), bold(url))
		} else {
			fmt.Fprintf(out, "  %s\n", url)
		}
	}
	return nil
}
