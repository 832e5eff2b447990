package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thruflo/clipsync/internal/syncengine"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sync the clipboard until interrupted",
	Long: `Adopts the server's current value, then keeps the local clipboard and
the server in sync until Ctrl+C.

Changes closer together than the quiescence window are deferred to a later
tick, so two machines copying at once cannot make the value bounce.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runSync(ctx, cmd)
}

// runSync runs the engine until ctx is done.
func runSync(ctx context.Context, cmd *cobra.Command) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	if !s.cfg.AutoConnect && serverURL == "" {
		return fmt.Errorf("auto_connect is disabled: pass --server to choose a server")
	}
	if err := s.requireServer(); err != nil {
		return err
	}

	client := s.client()
	engine, err := syncengine.New(syncengine.Options{
		Remote:     client,
		Local:      newLocalClipboard(),
		Logger:     s.logger.With("component", "engine"),
		Interval:   s.cfg.Sync.Interval(),
		Quiescence: s.cfg.Sync.Quiescence(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Syncing with %s (Ctrl+C to stop)\n", bold(client.BaseURL()))

	if err := engine.StartMonitoring(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	engine.Stop()
	<-engine.Done()
	engine.Wait()

	printSummary(cmd, engine.Stats())
	return nil
}

func printSummary(cmd *cobra.Command, stats syncengine.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nStopped after %d ticks: %d sent, %d received",
		stats.Ticks, stats.LocalAccepted, stats.RemoteAccepted)
	if errs := stats.PushErrors + stats.FetchErrors + stats.LocalReadErrors + stats.LocalWriteErrors; errs > 0 {
		fmt.Fprintf(out, ", %s", warning(fmt.Sprintf("%d errors", errs)))
	}
	fmt.Fprintln(out)

	last := stats.LastLocalChange
	if stats.LastRemoteChange.After(last) {
		last = stats.LastRemoteChange
	}
	if !last.IsZero() {
		fmt.Fprintf(out, "%s\n", dim("last change "+formatAge(time.Since(last))))
	}
}
