package handlers

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
)

// LogsHandlers streams the live log feed to admin dashboards over SSE.
type LogsHandlers struct {
	logger *logging.ChanneledLogger
}

// NewLogsHandlers creates log streaming handlers.
func NewLogsHandlers(logger *logging.ChanneledLogger) *LogsHandlers {
	return &LogsHandlers{logger: logger}
}

// StreamLogs handles GET /api/v1/logs/stream. Clients narrow the feed with
// ?channel= and ?level= query parameters.
func (h *LogsHandlers) StreamLogs(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	filters := logging.StreamFilters{
		Channel: logging.Channel(c.DefaultQuery("channel", "all")),
		Level:   logging.ParseLevel(c.DefaultQuery("level", "INFO")),
	}

	broadcaster := logging.GetBroadcaster()
	client := broadcaster.NewClient(filters)
	broadcaster.RegisterClient(client)
	defer broadcaster.UnregisterClient(client)

	h.logger.API().Debug("Log stream opened",
		"channel", string(filters.Channel),
		"level", filters.Level.String())

	fmt.Fprintf(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case entry, ok := <-client.Entries:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", entry)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
