// Package logging provides structured logging channels for PixelCycle
// operations with per-concern log levels and file/console fan-out.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Channel represents a logical logging channel for different system components
type Channel string

const (
	// System channels
	ChannelSystem   Channel = "system"   // General system operations
	ChannelStartup  Channel = "startup"  // Application startup and initialization
	ChannelShutdown Channel = "shutdown" // Application shutdown and cleanup

	// Orchestration channels
	ChannelRotation Channel = "rotation" // Mode rotation and state transitions
	ChannelLive     Channel = "live"     // Live event detection and preemption
	ChannelScroll   Channel = "scroll"   // Scroll regions and deferred updates

	// Data channels
	ChannelCache    Channel = "cache"    // Cache operations and management
	ChannelFetch    Channel = "fetch"    // Background fetch workers and retries
	ChannelSnapshot Channel = "snapshot" // Cache snapshot persistence

	// Edge channels
	ChannelAPI    Channel = "api"    // HTTP control API
	ChannelSocket Channel = "socket" // Websocket state stream
	ChannelEmail  Channel = "email"  // Outage alert delivery
	ChannelMedia  Channel = "media"  // Icon pipeline

	// Performance and monitoring channels
	ChannelPerf  Channel = "performance" // Performance monitoring and metrics
	ChannelAlert Channel = "alert"       // Threshold alerts and warnings

	// Development channels
	ChannelDebug Channel = "debug" // Debug information
)

// ChanneledLogger provides structured logging with multiple channels
type ChanneledLogger struct {
	channels map[Channel]*slog.Logger
	config   *LoggerConfig
}

// LoggerConfig contains configuration options for the channeled logger
type LoggerConfig struct {
	OutputToFile    bool   // Whether to write logs to files
	OutputToConsole bool   // Whether to write logs to console
	EnableStream    bool   // Whether to feed the live log stream broadcaster
	LogDirectory    string // Directory for log files
	JSONFormat      bool   // Use JSON format for structured logging
	DefaultLevel    slog.Level
}

// DefaultLoggerConfig returns a sensible default configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		OutputToFile:    true,
		OutputToConsole: true,
		EnableStream:    true,
		LogDirectory:    "log",
		JSONFormat:      false,
		DefaultLevel:    slog.LevelInfo,
	}
}

// ParseLevel maps a config string onto a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewChanneledLogger creates a new channeled logger with the given configuration
func NewChanneledLogger(config *LoggerConfig) (*ChanneledLogger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}

	logger := &ChanneledLogger{
		channels: make(map[Channel]*slog.Logger),
		config:   config,
	}

	if config.OutputToFile {
		if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	channels := []Channel{
		ChannelSystem, ChannelStartup, ChannelShutdown,
		ChannelRotation, ChannelLive, ChannelScroll,
		ChannelCache, ChannelFetch, ChannelSnapshot,
		ChannelAPI, ChannelSocket, ChannelEmail, ChannelMedia,
		ChannelPerf, ChannelAlert, ChannelDebug,
	}

	for _, channel := range channels {
		channelLogger, err := logger.createChannelLogger(channel)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger for channel %s: %w", channel, err)
		}
		logger.channels[channel] = channelLogger
	}

	return logger, nil
}

// createChannelLogger creates a slog.Logger for a specific channel
func (cl *ChanneledLogger) createChannelLogger(channel Channel) (*slog.Logger, error) {
	var writers []io.Writer

	if cl.config.OutputToConsole {
		writers = append(writers, os.Stdout)
	}

	if cl.config.OutputToFile {
		filename := fmt.Sprintf("%s.log", string(channel))
		path := filepath.Join(cl.config.LogDirectory, filename)

		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
		}
		writers = append(writers, file)
	}

	if cl.config.EnableStream {
		writers = append(writers, NewSSEWriter())
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		// Both outputs disabled yields a silent logger.
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = io.MultiWriter(writers...)
	}

	handlerOpts := &slog.HandlerOptions{Level: cl.config.DefaultLevel}

	var handler slog.Handler
	if cl.config.JSONFormat {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	return slog.New(handler).With(slog.String("channel", string(channel))), nil
}

func (cl *ChanneledLogger) System() *slog.Logger   { return cl.channels[ChannelSystem] }
func (cl *ChanneledLogger) Startup() *slog.Logger  { return cl.channels[ChannelStartup] }
func (cl *ChanneledLogger) Shutdown() *slog.Logger { return cl.channels[ChannelShutdown] }
func (cl *ChanneledLogger) Rotation() *slog.Logger { return cl.channels[ChannelRotation] }
func (cl *ChanneledLogger) Live() *slog.Logger     { return cl.channels[ChannelLive] }
func (cl *ChanneledLogger) Scroll() *slog.Logger   { return cl.channels[ChannelScroll] }
func (cl *ChanneledLogger) Cache() *slog.Logger    { return cl.channels[ChannelCache] }
func (cl *ChanneledLogger) Fetch() *slog.Logger    { return cl.channels[ChannelFetch] }
func (cl *ChanneledLogger) Snapshot() *slog.Logger { return cl.channels[ChannelSnapshot] }
func (cl *ChanneledLogger) API() *slog.Logger      { return cl.channels[ChannelAPI] }
func (cl *ChanneledLogger) Socket() *slog.Logger   { return cl.channels[ChannelSocket] }
func (cl *ChanneledLogger) Email() *slog.Logger    { return cl.channels[ChannelEmail] }
func (cl *ChanneledLogger) Media() *slog.Logger    { return cl.channels[ChannelMedia] }
func (cl *ChanneledLogger) Perf() *slog.Logger     { return cl.channels[ChannelPerf] }
func (cl *ChanneledLogger) Alert() *slog.Logger    { return cl.channels[ChannelAlert] }
func (cl *ChanneledLogger) Debug() *slog.Logger    { return cl.channels[ChannelDebug] }

// GetChannel returns a logger for a specific channel
func (cl *ChanneledLogger) GetChannel(channel Channel) *slog.Logger {
	if logger, exists := cl.channels[channel]; exists {
		return logger
	}
	return cl.channels[ChannelSystem]
}

// WithMode returns a logger with display-mode context
func (cl *ChanneledLogger) WithMode(channel Channel, modeID string) *slog.Logger {
	return cl.GetChannel(channel).With(slog.String("modeId", modeID))
}

// WithOperation returns a logger with operation context
func (cl *ChanneledLogger) WithOperation(channel Channel, operation string) *slog.Logger {
	return cl.GetChannel(channel).With(slog.String("operation", operation))
}

// LogCacheOperation logs cache operations with performance context
func (cl *ChanneledLogger) LogCacheOperation(operation, key string, hit bool, duration time.Duration) {
	logger := cl.Cache().With(
		slog.String("operation", operation),
		slog.String("key", key),
		slog.Bool("hit", hit),
		slog.Duration("duration", duration),
	)

	if hit {
		logger.Debug("Cache hit")
	} else {
		logger.Debug("Cache miss")
	}
}

// LogFetchAttempt logs one background fetch attempt outcome
func (cl *ChanneledLogger) LogFetchAttempt(cacheKey string, attempt int, duration time.Duration, err error) {
	logger := cl.Fetch().With(
		slog.String("key", cacheKey),
		slog.Int("attempt", attempt),
		slog.Duration("duration", duration),
	)

	if err != nil {
		logger.Warn("Fetch attempt failed", "error", err.Error())
	} else {
		logger.Debug("Fetch attempt succeeded")
	}
}

// LogStateTransition logs rotation scheduler state changes
func (cl *ChanneledLogger) LogStateTransition(from, to, modeID, reason string) {
	cl.Rotation().Info("Scheduler state transition",
		slog.String("from", from),
		slog.String("to", to),
		slog.String("modeId", modeID),
		slog.String("reason", reason),
	)
}

// LogStartupPhase logs application startup phases
func (cl *ChanneledLogger) LogStartupPhase(phase string, duration time.Duration, success bool) {
	logger := cl.Startup().With(
		slog.String("phase", phase),
		slog.Duration("duration", duration),
		slog.Bool("success", success),
	)

	if success {
		logger.Info("Startup phase completed")
	} else {
		logger.Error("Startup phase failed")
	}
}

// LogError logs an error with appropriate context and channel
func (cl *ChanneledLogger) LogError(channel Channel, operation string, err error, metadata map[string]any) {
	logger := cl.GetChannel(channel).With(
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)

	for key, value := range metadata {
		logger = logger.With(slog.Any(key, value))
	}

	logger.Error("Operation failed")
}

// Close flushes and releases logger resources
func (cl *ChanneledLogger) Close() error {
	cl.System().Info("Channeled logger shutting down")
	return nil
}
