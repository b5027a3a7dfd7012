// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/application/container"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/cleanup"
	"github.com/pixelcycle/pixelcycle-go/internal/presentation/http/server"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete display startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `

  █▀█ █ ▀▄▀ █▀▀ █   █▀▀ ▀▄▀ █▀▀ █   █▀▀
  █▀▀ █ ▄▀▄ ██▄ █▄▄ █▄▄  █  █▄▄ █▄▄ ██▄
` + "\033[97m" + `
  display orchestration & adaptive caching
` + "\033[0m")

	// Step 1: Prepare runtime directories
	log.Println("Initializing...")
	for _, dir := range []string{config.HomeDir, config.MediaPath, config.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create runtime directory %s: %w", dir, err)
		}
	}
	log.Printf("Runtime home: %s", config.HomeDir)

	// Step 2: Create dependency injection container (THIS IS WHERE LOGGER IS CREATED!)
	log.Println("Initializing dependency injection container...")
	appContainer, err := container.NewContainer()
	if err != nil {
		return fmt.Errorf("container initialization failed: %w", err)
	}
	log.Println("✓ Dependency injection container created with singleton services.")

	// NOW USE THE LOGGER FROM CONTAINER
	logger := appContainer.Logger
	logger.Startup().Info("Container initialization complete - switching to channeled logging")

	// Step 3: Restore last-known-good cache entries from the snapshot store
	logger.Startup().Info("Restoring cache snapshot...")
	startRestoreTime := time.Now()
	restored := appContainer.SnapshotService.Restore(ctx)
	logger.Startup().Info("Cache snapshot restored",
		"entries", restored,
		"driver", appContainer.Store.ConnectionInfo(),
		"duration", time.Since(startRestoreTime))

	// Step 4: Start the background fetch worker pool
	logger.Startup().Info("Starting fetch worker pool...", "workers", config.FetchWorkers)
	appContainer.Fetcher.Start(ctx)

	// Step 5: Queue a warm-up fetch for every registered provider
	logger.Startup().Info("Prefetching all providers...")
	startWarmTime := time.Now()
	appContainer.RefreshService.PrefetchAll(appContainer.Registry)
	logger.Startup().Info("Prefetch queued", "modes", len(appContainer.Registry.ModeIDs()), "duration", time.Since(startWarmTime))

	// Step 6: Start the state broadcaster and health monitors
	logger.Startup().Info("Starting state hub and monitors...")
	go appContainer.StateHub.Run(ctx)
	appContainer.CacheMonitor.Start(ctx)
	appContainer.DisplayMonitor.Start(ctx)

	// Step 7: Start background cache cleanup worker
	logger.Startup().Info("Starting background cleanup worker...")
	cleanupWorker := cleanup.NewWorker(appContainer.CacheManager, cleanup.NewConfig())
	go cleanupWorker.Start(ctx)

	// Step 8: Start the periodic snapshot loop
	go appContainer.SnapshotService.Run(ctx)

	// Step 9: Start the rotation loop
	logger.Startup().Info("Starting rotation scheduler...", "tickInterval", config.TickInterval.String())
	go appContainer.Scheduler.Run(ctx)

	// Step 10: Start HTTP server
	logger.Startup().Info("Starting HTTP server...")
	startServerTime := time.Now()

	port := config.Port
	httpServer := server.New(port, appContainer)

	logger.Startup().Info("HTTP server initialized", "port", port, "duration", time.Since(startServerTime))

	// Step 11: Setup graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	totalStartupTime := time.Since(start)
	logger.Startup().Info("Application startup complete",
		"totalDuration", totalStartupTime,
		"modes", len(appContainer.Registry.ModeIDs()),
		"restoredEntries", restored,
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	// Cancel background tasks: rotation, fetch workers, hub, snapshot loop
	cancelBackgroundTasks()

	// Stop server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	// Drain fetch workers before the final snapshot so no write races Close
	logger.Shutdown().Info("Waiting for fetch workers to drain...")
	appContainer.Fetcher.WaitStopped()

	logger.Shutdown().Info("Writing final cache snapshot...")
	if err := appContainer.SnapshotService.SaveNow(shutdownCtx); err != nil {
		logger.Shutdown().Error("Final snapshot failed", "error", err.Error())
	}

	logger.Shutdown().Info("Closing snapshot store...")
	if err := appContainer.Store.Close(); err != nil {
		logger.Shutdown().Error("Error closing snapshot store", "error", err.Error())
	} else {
		logger.Shutdown().Info("Snapshot store closed successfully")
	}

	elapsed := time.Since(start)
	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", elapsed,
		"shutdownDuration", time.Since(shutdownStart))

	logger.Close()

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
