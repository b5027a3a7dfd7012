package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/domain/modes"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/interfaces"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/persistence"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// SnapshotService periodically persists the cache and restores it on boot.
// Restored entries keep their original timestamps: anything already past its
// TTL renders as last known good while background refreshes catch up.
type SnapshotService struct {
	store    *persistence.Store
	cache    interfaces.Cache
	registry *modes.Registry
	logger   *logging.ChanneledLogger
	interval time.Duration
}

// NewSnapshotService creates the snapshot service on the configured cadence.
func NewSnapshotService(store *persistence.Store, cache interfaces.Cache, registry *modes.Registry, logger *logging.ChanneledLogger) *SnapshotService {
	interval := config.SnapshotInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SnapshotService{
		store:    store,
		cache:    cache,
		registry: registry,
		logger:   logger,
		interval: interval,
	}
}

// Restore loads the stored snapshot into the cache, decoding each payload
// through its provider. Entries whose provider is gone, typically after a
// schedule change, are skipped.
func (s *SnapshotService) Restore(ctx context.Context) int {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		s.logger.Snapshot().Warn("Snapshot restore failed, starting cold", "error", err.Error())
		return 0
	}
	if len(records) == 0 {
		s.logger.Snapshot().Info("No snapshot to restore, starting cold")
		return 0
	}
	return s.cache.Restore(records, s.decode)
}

func (s *SnapshotService) decode(key string, raw []byte) (any, error) {
	provider, ok := s.registry.ByCacheKey(key)
	if !ok {
		return nil, fmt.Errorf("no provider for cache key %s", key)
	}
	return provider.Decode(raw)
}

// SaveNow exports the cache and writes it to the store.
func (s *SnapshotService) SaveNow(ctx context.Context) error {
	return s.store.SaveAll(ctx, s.cache.Export())
}

// Run persists snapshots on the configured interval until the context is
// canceled, then writes one final snapshot so a shutdown never loses more
// than in-flight fetches.
func (s *SnapshotService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Snapshot().Info("Snapshot loop started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.SaveNow(flushCtx); err != nil {
				s.logger.Snapshot().Error("Final snapshot failed", "error", err.Error())
			} else {
				s.logger.Snapshot().Info("Final snapshot written")
			}
			cancel()
			return
		case <-ticker.C:
			if err := s.SaveNow(ctx); err != nil {
				s.logger.Snapshot().Warn("Periodic snapshot failed", "error", err.Error())
			}
		}
	}
}
