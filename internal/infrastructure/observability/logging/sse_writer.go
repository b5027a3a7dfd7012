package logging

import (
	"encoding/json"
	"time"
)

// SSEWriter is an io.Writer that forwards structured log output to the
// LogBroadcaster so admin dashboards can tail logs live.
type SSEWriter struct {
	broadcaster *LogBroadcaster
}

// NewSSEWriter creates a writer bound to the shared broadcaster.
func NewSSEWriter() *SSEWriter {
	return &SSEWriter{
		broadcaster: GetBroadcaster(),
	}
}

// Write parses a JSON log record and submits it for streaming. Records that
// are not JSON (text handler output) are forwarded as plain system messages.
func (w *SSEWriter) Write(p []byte) (n int, err error) {
	var rawLog map[string]any
	if err := json.Unmarshal(p, &rawLog); err != nil {
		w.broadcaster.SubmitLog(LogEntry{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Level:     "INFO",
			Channel:   string(ChannelSystem),
			Message:   string(p),
		})
		return len(p), nil
	}

	entry := LogEntry{
		Timestamp: w.getString(rawLog, "time"),
		Level:     w.getString(rawLog, "level"),
		Channel:   w.getString(rawLog, "channel"),
		Message:   w.getString(rawLog, "msg"),
	}

	w.broadcaster.SubmitLog(entry)
	return len(p), nil
}

func (w *SSEWriter) getString(data map[string]any, key string) string {
	if val, ok := data[key]; ok {
		if strVal, ok := val.(string); ok {
			return strVal
		}
	}
	return ""
}
