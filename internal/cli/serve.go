package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thruflo/clipsync/internal/server"
	"github.com/thruflo/clipsync/internal/store"
)

var (
	serveHost string
	servePort int
	serveDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a clipboard store for other instances to share",
	Long: `Serves GET and POST on /api/clipboard. The value is kept in memory
unless --db names a SQLite file to persist it in.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "interface to bind (default: all)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", server.DefaultPort, "port to listen on")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite file to persist the value in")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &server.Config{
		Host:   serveHost,
		Port:   servePort,
		Logger: s.logger.With("component", "server"),
	}
	if serveDB != "" {
		db, err := store.OpenSQLite(ctx, serveDB)
		if err != nil {
			return err
		}
		defer db.Close()
		cfg.Store = db
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving clipboard on %s (Ctrl+C to stop)\n", bold(srv.Addr()))
	return srv.Start(ctx)
}
