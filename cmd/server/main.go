package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/ytwrap-go/api"
	"github.com/yourusername/ytwrap-go/internal/app"
	"github.com/yourusername/ytwrap-go/internal/infrastructure"
	"github.com/yourusername/ytwrap-go/internal/version"
	"github.com/yourusername/ytwrap-go/pkg/logger"
)

var configPath = flag.String("config", "", "Config file (default searches ./configs, ~/.config/ytwrap, /etc/ytwrap)")

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ytwrap-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting ytwrap server",
		zap.String("version", version.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("download_dir", config.Download.Dir))

	// The queue is the history; it cannot run without the database.
	repo, err := infrastructure.NewSQLiteDownloadRepository(config.History.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []app.DelegateOption{
		app.WithRepository(repo),
		app.WithNotifier(infrastructure.NewNotificationService(&config.Notification, log)),
	}
	if config.Logging.DownloadLog {
		opts = append(opts, app.WithDownloadLog(infrastructure.NewDownloadLog(config.Logging.LogsDir)))
	}
	delegate := app.NewDelegate(config, log, opts...)

	if err := delegate.EnsureToolInstalled(ctx); err != nil {
		log.Error("yt-dlp unavailable", zap.Error(err), zap.String("hint", infrastructure.ManualInstallHint))
		return err
	}
	if _, err := delegate.ResolveOutputDirectory(); err != nil {
		return err
	}

	queueMgr := app.NewQueueManager(repo, delegate, &config.Queue, log)
	if err := queueMgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start queue manager: %w", err)
	}

	router := api.SetupRouter(queueMgr, delegate, &config.Download, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case err := <-serveErr:
		log.Error("HTTP server failed", zap.Error(err))
		queueMgr.Stop()
		return err
	}

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Cancelling stops waiting on a running download; yt-dlp keeps going
	// and leaves its partial files.
	cancel()
	if err := queueMgr.Stop(); err != nil {
		log.Error("Error stopping queue manager", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}
