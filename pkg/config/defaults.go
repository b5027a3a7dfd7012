// Package config provides centralized default values for PixelCycle
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err != nil {
			return
		}
		log.Println("Loading configuration overrides from .env file...")
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseFloat(valStr, 64); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%g (default: %g)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func defaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pixelcycle"
	}
	return filepath.Join(home, ".pixelcycle")
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Paths
	HomeDir      string
	SchedulePath string
	DBPath       string
	MediaPath    string
	FontPath     string
	LogDir       string

	// Display Geometry & Rotation
	DisplayWidth   int
	ScrollSpeedPx  int
	FrameDelay     time.Duration
	DurationBuffer float64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	TickInterval   time.Duration

	// Scroll Coordination
	ScrollInactivityThreshold time.Duration

	// Background Fetch
	FetchWorkers       int
	FetchQueueCapacity int
	FetchTimeout       time.Duration
	FetchMaxRetries    int
	BackoffBase        time.Duration
	BackoffCap         time.Duration

	// Cache Configuration
	CacheSoftCap         int
	CacheIdleHorizon     time.Duration
	CacheCleanupInterval time.Duration
	CacheCleanupVerbose  bool
	FixedTTL             time.Duration
	WeatherTTL           time.Duration
	NewsTTL              time.Duration
	MarketOpenTTL        time.Duration
	MarketClosedTTL      time.Duration

	// Snapshot Persistence
	SnapshotInterval time.Duration
	TursoEnabled     bool
	TursoDatabaseURL string
	TursoAuthToken   string
	DBMaxOpenConns   int
	DBMaxIdleConns   int

	// Security
	JWTSecret     string
	AdminPassword string
	TokenTTL      time.Duration

	// Outage Alerts
	AlertFailureThreshold int
	AlertCooldown         time.Duration
	AlertFromEmail        string
	AlertToEmail          string
	ResendAPIKey          string

	// Data Source Endpoints
	WeatherEndpoint string
	WeatherLocation string
	StocksEndpoint  string
	StockSymbols    string
	SportsEndpoint  string
	SportLeagues    string
	NewsEndpoint    string
	NewsMaxItems    int

	// Typography
	FontSizePx  float64
	CharWidthPx int
	FontDPI     float64

	// Media
	IconTilePx      int
	IconWebPQuality float64

	// Logging
	LogLevel       string
	LogFormat      string
	LogFileEnabled bool
)

// SportLiveInterval returns the configured live refresh interval for a
// league, or false when no override is set.
func SportLiveInterval(league string) (time.Duration, bool) {
	key := "SPORT_LIVE_INTERVAL_" + strings.ToUpper(league) + "_SECONDS"
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil && val > 0 {
			return time.Duration(val) * time.Second, true
		}
	}
	return 0, false
}

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "10000")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Paths
	HomeDir = getEnvString("PIXELCYCLE_HOME", defaultHomeDir())
	SchedulePath = getEnvString("SCHEDULE_PATH", filepath.Join(HomeDir, "schedule.json"))
	DBPath = getEnvString("DB_PATH", filepath.Join(HomeDir, "cache.db"))
	MediaPath = getEnvString("MEDIA_PATH", filepath.Join(HomeDir, "media"))
	FontPath = getEnvString("FONT_PATH", filepath.Join(HomeDir, "fonts", "display.ttf"))
	LogDir = getEnvString("LOG_DIR", filepath.Join(HomeDir, "log"))

	// Display Geometry & Rotation
	DisplayWidth = getEnvInt("DISPLAY_WIDTH", 64)
	ScrollSpeedPx = getEnvInt("SCROLL_SPEED_PX", 2)
	FrameDelay = getEnvDuration("FRAME_DELAY", 50*time.Millisecond)
	DurationBuffer = getEnvFloat("DURATION_BUFFER", 0.1)
	MinDuration = time.Duration(getEnvInt("MIN_DURATION_SECONDS", 8)) * time.Second
	MaxDuration = time.Duration(getEnvInt("MAX_DURATION_SECONDS", 120)) * time.Second
	TickInterval = getEnvDuration("TICK_INTERVAL", 1*time.Second)

	// Scroll Coordination
	ScrollInactivityThreshold = getEnvDuration("SCROLL_INACTIVITY_THRESHOLD", 2*time.Second)

	// Background Fetch
	FetchWorkers = getEnvInt("FETCH_WORKERS", 3)
	FetchQueueCapacity = getEnvInt("FETCH_QUEUE_CAPACITY", 16)
	FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 30*time.Second)
	FetchMaxRetries = getEnvInt("FETCH_MAX_RETRIES", 2)
	BackoffBase = getEnvDuration("BACKOFF_BASE", 500*time.Millisecond)
	BackoffCap = getEnvDuration("BACKOFF_CAP", 10*time.Second)

	// Cache Configuration
	CacheSoftCap = getEnvInt("CACHE_SOFT_CAP", 256)
	CacheIdleHorizon = time.Duration(getEnvInt("CACHE_IDLE_HORIZON_MINUTES", 30)) * time.Minute
	CacheCleanupInterval = time.Duration(getEnvInt("CACHE_CLEANUP_INTERVAL_MINUTES", 5)) * time.Minute
	CacheCleanupVerbose = getEnvBool("CACHE_CLEANUP_VERBOSE", false)
	FixedTTL = time.Duration(getEnvInt("FIXED_TTL_SECONDS", 300)) * time.Second
	WeatherTTL = time.Duration(getEnvInt("WEATHER_TTL_MINUTES", 10)) * time.Minute
	NewsTTL = time.Duration(getEnvInt("NEWS_TTL_MINUTES", 15)) * time.Minute
	MarketOpenTTL = time.Duration(getEnvInt("MARKET_OPEN_TTL_SECONDS", 120)) * time.Second
	MarketClosedTTL = time.Duration(getEnvInt("MARKET_CLOSED_TTL_MINUTES", 30)) * time.Minute

	// Snapshot Persistence
	SnapshotInterval = time.Duration(getEnvInt("SNAPSHOT_INTERVAL_MINUTES", 5)) * time.Minute
	TursoDatabaseURL = getEnvString("TURSO_DATABASE_URL", "")
	TursoAuthToken = getEnvString("TURSO_AUTH_TOKEN", "")
	TursoEnabled = getEnvBool("TURSO_ENABLED", TursoDatabaseURL != "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 4)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 2)

	// Security
	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminPassword = getEnvString("ADMIN_PASSWORD", "")
	TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)

	// Outage Alerts
	AlertFailureThreshold = getEnvInt("ALERT_FAILURE_THRESHOLD", 3)
	AlertCooldown = getEnvDuration("ALERT_COOLDOWN", 1*time.Hour)
	AlertFromEmail = getEnvString("ALERT_FROM_EMAIL", "alerts@pixelcycle.local")
	AlertToEmail = getEnvString("ALERT_TO_EMAIL", "")
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")

	// Data Source Endpoints
	WeatherEndpoint = getEnvString("WEATHER_ENDPOINT", "https://api.open-meteo.com/v1/forecast")
	WeatherLocation = getEnvString("WEATHER_LOCATION", "40.71,-74.01")
	StocksEndpoint = getEnvString("STOCKS_ENDPOINT", "https://query1.finance.yahoo.com/v7/finance/quote")
	StockSymbols = getEnvString("STOCK_SYMBOLS", "AAPL,GOOG,TSLA")
	SportsEndpoint = getEnvString("SPORTS_ENDPOINT", "https://site.api.espn.com/apis/site/v2/sports")
	SportLeagues = getEnvString("SPORT_LEAGUES", "nfl,nba,mlb")
	NewsEndpoint = getEnvString("NEWS_ENDPOINT", "https://hn.algolia.com/api/v1/search?tags=front_page")
	NewsMaxItems = getEnvInt("NEWS_MAX_ITEMS", 5)

	// Typography
	FontSizePx = getEnvFloat("FONT_SIZE_PX", 16)
	CharWidthPx = getEnvInt("CHAR_WIDTH_PX", 6)
	FontDPI = getEnvFloat("FONT_DPI", 72)

	// Media
	IconTilePx = getEnvInt("ICON_TILE_PX", 32)
	IconWebPQuality = getEnvFloat("ICON_WEBP_QUALITY", 85)

	// Logging
	LogLevel = getEnvString("LOG_LEVEL", "info")
	LogFormat = getEnvString("LOG_FORMAT", "text")
	LogFileEnabled = getEnvBool("LOG_FILE_ENABLED", true)
}
