package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/clipsync/internal/syncengine"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Send the local clipboard to the server once",
	Args:  cobra.NoArgs,
	RunE:  runPush,
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Copy the server's value to the local clipboard once",
	Args:  cobra.NoArgs,
	RunE:  runPull,
}

func init() {
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
}

func newManualEngine() (*syncengine.Engine, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if err := s.requireServer(); err != nil {
		return nil, err
	}
	return syncengine.New(syncengine.Options{
		Remote: s.client(),
		Local:  newLocalClipboard(),
		Logger: s.logger.With("component", "engine"),
	})
}

func runPush(cmd *cobra.Command, _ []string) error {
	engine, err := newManualEngine()
	if err != nil {
		return err
	}
	if err := engine.SyncToRemote(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), statusOK(fmt.Sprintf("pushed %d bytes", len(engine.LastContent()))))
	return nil
}

func runPull(cmd *cobra.Command, _ []string) error {
	engine, err := newManualEngine()
	if err != nil {
		return err
	}
	if err := engine.SyncFromRemote(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), statusOK(fmt.Sprintf("pulled %d bytes", len(engine.LastContent()))))
	return nil
}
