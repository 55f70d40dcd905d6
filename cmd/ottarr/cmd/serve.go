package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	internalhttp "github.com/jwhitfield/ottarr/internal/http"
	"github.com/jwhitfield/ottarr/internal/http/handlers"
	"github.com/jwhitfield/ottarr/internal/scheduler"
	"github.com/jwhitfield/ottarr/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ottarr server",
	Long: `Start the ottarr HTTP server and API.

The server provides:
- REST API for managing sources and browsing cached catalogs
- Sync triggers and a live state/effect event stream (SSE)
- Scheduled background refresh of stale catalogs
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8090, "Port to listen on")
	serveCmd.Flags().String("database", "", "Database DSN (file path for sqlite)")

	mustBindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	mustBindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	mustBindPFlag("database.dsn", serveCmd.Flags().Lookup("database"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	app, err := buildRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	sched := scheduler.New(app.sources, app.coordinator, cfg.Scheduler).WithLogger(logger)

	serverConfig := internalhttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	server := internalhttp.NewServer(serverConfig, logger, version.Short())

	healthHandler := handlers.NewHealthHandler(version.Short()).
		WithDB(app.db.DB).
		WithScheduler(sched)
	healthHandler.Register(server.API())

	sourceHandler := handlers.NewSourceHandler(app.manager).
		WithScheduleReloader(sched)
	sourceHandler.Register(server.API())

	syncHandler := handlers.NewSyncHandler(app.coordinator, app.bus, cfg.Sync.IdleWindow, logger)
	syncHandler.Register(server.API())
	syncHandler.RegisterSSE(server.Router())

	browseHandler := handlers.NewBrowseHandler(app.content, app.manager)
	browseHandler.Register(server.API())

	libraryHandler := handlers.NewLibraryHandler(app.library, app.manager)
	libraryHandler.Register(server.API())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	logger.Info("starting ottarr server",
		slog.String("host", serverConfig.Host),
		slog.Int("port", serverConfig.Port),
		slog.String("version", version.Short()),
	)

	return server.ListenAndServe(ctx)
}
