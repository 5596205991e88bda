package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hostgate-io/hostgate/internal/server"
)

var (
	serveListen   string
	serveUpstream string
	serveConfig   string
	serveAuditLog string
	serveDebug    bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveUpstream, "upstream", "", "Upstream URL to proxy allowed requests to (required)")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Path to config YAML (default ~/.hostgate/config.yaml)")
	serveCmd.Flags().StringVar(&serveAuditLog, "audit-log", "", "Path to decision audit log JSONL file")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Trace every decision to stderr")
	serveCmd.MarkFlagRequired("upstream")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gate as a reverse proxy",
	Long:  "Fronts one upstream with the host allow-list: allowed requests are\nproxied through unchanged, everything else gets the denial response.\nSupports hot-reload of the config file.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := server.New(server.Config{
		Listen:     serveListen,
		Upstream:   serveUpstream,
		ConfigPath: serveConfig,
		AuditPath:  serveAuditLog,
		Debug:      serveDebug,
	})
	if err != nil {
		return fmt.Errorf("failed to create gate server: %w", err)
	}

	// Start hot-reload watcher for the config file
	reloader, err := server.NewReloader(srv, []string{serveConfig})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: hot-reload disabled: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if reloader != nil {
		go reloader.Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down gate server...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "hostgate listening on %s, proxying to %s\n", serveListen, serveUpstream)
	if serveConfig != "" {
		fmt.Fprintf(os.Stderr, "Config: %s (hot-reload enabled)\n", serveConfig)
	}
	if serveAuditLog != "" {
		fmt.Fprintf(os.Stderr, "Audit log: %s\n", serveAuditLog)
	}
	fmt.Fprintln(os.Stderr)

	return srv.Serve()
}
