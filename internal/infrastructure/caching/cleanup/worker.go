// Package cleanup provides the background cache maintenance worker
package cleanup

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/interfaces"
)

// Worker handles background cache cleanup operations
type Worker struct {
	cache  interfaces.Cache
	config *Config
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(cache interfaces.Cache, config *Config) *Worker {
	return &Worker{
		cache:  cache,
		config: config,
	}
}

// Start begins the cleanup worker routine, using the configured interval
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	log.Printf("Cache cleanup worker started (interval: %v, verbose: %v)",
		w.config.CleanupInterval, w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			log.Println("Cache cleanup worker stopping...")
			return
		case <-ticker.C:
			w.performCleanup()
		}
	}
}

// performCleanup drops idle entries and optionally prints a cache report
func (w *Worker) performCleanup() {
	start := time.Now()
	reporter := NewReporter(w.cache)

	if w.config.VerboseReporting {
		reporter.LogStage("PERIODIC CACHE CLEANUP")
		fmt.Print(reporter.GenerateCacheReport())
	}

	purged := w.cache.PurgeIdle()

	duration := time.Since(start)
	if purged > 0 {
		reporter.LogSuccess("Cache cleanup finished: %d idle entries dropped in %v", purged, duration)
	} else if w.config.VerboseReporting {
		reporter.LogInfo("Cache cleanup completed - no idle entries found (%v)", duration)
	}
}
