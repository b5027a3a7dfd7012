// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pixelcycle/pixelcycle-go/internal/application/coordinator"
	"github.com/pixelcycle/pixelcycle-go/internal/application/scheduler"
	"github.com/pixelcycle/pixelcycle-go/internal/application/services"
	"github.com/pixelcycle/pixelcycle-go/internal/domain/display"
	"github.com/pixelcycle/pixelcycle-go/internal/domain/modes"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/manager"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/email"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/fetching"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/media"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/messaging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/metrics"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/monitoring"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/performance"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/persistence"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/typography"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Observability (created first so everything below can log)
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
	Metrics     *metrics.Metrics

	// Infrastructure
	CacheManager  *manager.Manager
	Store         *persistence.Store
	IconProcessor *media.IconProcessor
	Measurer      *typography.Measurer
	Mailer        email.Service

	// Domain
	Calculator  display.Calculator
	LiveMonitor *display.LiveMonitor
	Registry    *modes.Registry

	// Application Services (stateful singletons)
	Coordinator     *coordinator.GracefulUpdateCoordinator
	Fetcher         *fetching.Service
	RefreshService  *services.RefreshService
	AlertService    *services.AlertService
	SnapshotService *services.SnapshotService
	AuthService     *services.AuthService
	Scheduler       *scheduler.Scheduler

	// Presentation-facing singletons
	StateHub       *messaging.StateHub
	CacheMonitor   *monitoring.CachePerformanceMonitor
	DisplayMonitor *monitoring.DisplayMonitor
}

// NewContainer creates and wires all singleton services. Construction order
// matters: logger first, then infrastructure, then the services that consume
// it. The scheduler comes last because it touches nearly everything.
func NewContainer() (*Container, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create channeled logger: %w", err)
	}

	perfTracker := performance.NewTracker()
	appMetrics := metrics.New()

	cacheManager := manager.NewManager(config.CacheSoftCap, config.CacheIdleHorizon, logger)

	store, err := persistence.NewStore(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	iconProcessor := media.NewIconProcessor(config.MediaPath, config.IconTilePx, logger)
	if err := iconProcessor.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("failed to prepare media directories: %w", err)
	}

	measurer := typography.NewMeasurer(logger)
	calculator := display.NewCalculator()
	liveMonitor := display.NewLiveMonitor()

	registry, err := newRegistry(liveMonitor, iconProcessor)
	if err != nil {
		return nil, fmt.Errorf("failed to build mode registry: %w", err)
	}

	coord := coordinator.New(config.ScrollInactivityThreshold, logger, appMetrics)
	fetcher := fetching.NewService(fetching.NewConfig(), cacheManager, logger, appMetrics)
	refreshService := services.NewRefreshService(fetcher, cacheManager, coord, logger)

	mailer := email.NewService(logger)
	alertService := services.NewAlertService(mailer, logger)
	alertService.Bind(fetcher)

	snapshotService := services.NewSnapshotService(store, cacheManager, registry, logger)

	authService, err := services.NewAuthService(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	stateHub := messaging.NewStateHub(logger)
	cacheMonitor := monitoring.NewCachePerformanceMonitor(cacheManager.Stats, monitoring.DefaultCacheMonitorConfig())
	displayMonitor := monitoring.NewDisplayMonitor(monitoring.DefaultDisplayHealthThresholds())

	entries, err := config.LoadSchedule()
	if err != nil {
		logger.Startup().Warn("Schedule file unreadable, using default rotation", "error", err.Error())
		entries = config.DefaultSchedule()
	}

	sched := scheduler.New(scheduler.Deps{
		Registry:    registry,
		Cache:       cacheManager,
		Refresh:     refreshService,
		Coordinator: coord,
		Monitor:     liveMonitor,
		Measurer:    measurer,
		Calculator:  &calculator,
		Logger:      logger,
		Metrics:     appMetrics,
	}, entries)

	// Every tick fans out to websocket clients and the rotation monitor.
	sched.SetPublisher(func(ev scheduler.StateEvent) {
		stateHub.Publish(ev)
		displayMonitor.RecordTick(ev.At, ev.State, ev.ModeID, ev.Live)
	})

	return &Container{
		Logger:      logger,
		PerfTracker: perfTracker,
		Metrics:     appMetrics,

		CacheManager:  cacheManager,
		Store:         store,
		IconProcessor: iconProcessor,
		Measurer:      measurer,
		Mailer:        mailer,

		Calculator:  calculator,
		LiveMonitor: liveMonitor,
		Registry:    registry,

		Coordinator:     coord,
		Fetcher:         fetcher,
		RefreshService:  refreshService,
		AlertService:    alertService,
		SnapshotService: snapshotService,
		AuthService:     authService,
		Scheduler:       sched,

		StateHub:       stateHub,
		CacheMonitor:   cacheMonitor,
		DisplayMonitor: displayMonitor,
	}, nil
}

// newLogger builds the channeled logger from environment configuration.
func newLogger() (*logging.ChanneledLogger, error) {
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToFile = config.LogFileEnabled
	cfg.LogDirectory = config.LogDir
	cfg.JSONFormat = config.LogFormat == "json"
	cfg.DefaultLevel = logging.ParseLevel(config.LogLevel)
	return logging.NewChanneledLogger(cfg)
}

// newRegistry assembles the built-in providers. The clock carries no feed so
// it registers without a cache key; one sports provider is created per
// configured league so each league caches and signals live independently.
func newRegistry(monitor *display.LiveMonitor, icons *media.IconProcessor) (*modes.Registry, error) {
	client := &http.Client{Timeout: config.FetchTimeout}

	providers := []modes.Provider{
		modes.NewClockProvider(),
		modes.NewWeatherProvider(config.WeatherEndpoint, config.WeatherLocation, client, icons),
		modes.NewStocksProvider(config.StocksEndpoint, config.StockSymbols, client),
		modes.NewNewsProvider(config.NewsEndpoint, config.NewsMaxItems, client),
	}

	for _, league := range strings.Split(config.SportLeagues, ",") {
		league = strings.TrimSpace(strings.ToLower(league))
		if league == "" {
			continue
		}
		providers = append(providers, modes.NewSportsProvider(league, config.SportsEndpoint, client, monitor, icons))
	}

	return modes.NewRegistry(providers...)
}
