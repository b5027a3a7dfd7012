package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestZeroConfigLoggerStaysUsable(t *testing.T) {
	logger, err := NewChanneledLogger(&LoggerConfig{})
	if err != nil {
		t.Fatalf("NewChanneledLogger: %v", err)
	}

	// Every channel accessor must return a working logger even with all
	// outputs disabled.
	logger.System().Info("discarded")
	logger.Rotation().Debug("discarded")
	if logger.GetChannel("no-such-channel") == nil {
		t.Fatal("unknown channel should fall back to the system logger")
	}
}

func TestFileOutputWritesPerChannelFiles(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewChanneledLogger(&LoggerConfig{
		OutputToFile: true,
		LogDirectory: dir,
		JSONFormat:   true,
		DefaultLevel: slog.LevelDebug,
	})
	if err != nil {
		t.Fatalf("NewChanneledLogger: %v", err)
	}

	logger.Rotation().Info("mode advanced", slog.String("modeId", "weather"))

	data, err := os.ReadFile(filepath.Join(dir, "rotation.log"))
	if err != nil {
		t.Fatalf("reading rotation.log: %v", err)
	}
	if !strings.Contains(string(data), "mode advanced") {
		t.Errorf("expected rotation.log to contain the message, got %q", data)
	}
	if !strings.Contains(string(data), `"channel":"rotation"`) {
		t.Errorf("expected channel attribute in log record, got %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func receiveEntry(t *testing.T, client *StreamClient) LogEntry {
	t.Helper()
	select {
	case raw := <-client.Entries:
		var entry LogEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			t.Fatalf("unmarshal streamed entry: %v", err)
		}
		return entry
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for streamed log entry")
		return LogEntry{}
	}
}

func TestBroadcasterDeliversToMatchingClients(t *testing.T) {
	b := GetBroadcaster()
	client := b.NewClient(StreamFilters{Channel: "all", Level: slog.LevelDebug})
	b.RegisterClient(client)
	t.Cleanup(func() { b.UnregisterClient(client) })

	b.SubmitLog(LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Channel:   "rotation",
		Level:     "INFO",
		Message:   "mode advanced",
	})

	entry := receiveEntry(t, client)
	if entry.Channel != "rotation" || entry.Message != "mode advanced" {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestBroadcasterHonorsChannelAndLevelFilters(t *testing.T) {
	b := GetBroadcaster()
	client := b.NewClient(StreamFilters{Channel: "cache", Level: slog.LevelWarn})
	b.RegisterClient(client)
	t.Cleanup(func() { b.UnregisterClient(client) })

	// Wrong channel, then below the level floor, then a match. Fan-out is
	// sequential so receiving the match proves the first two were dropped.
	b.SubmitLog(LogEntry{Channel: "rotation", Level: "WARN", Message: "wrong channel"})
	b.SubmitLog(LogEntry{Channel: "cache", Level: "DEBUG", Message: "below level"})
	b.SubmitLog(LogEntry{Channel: "cache", Level: "ERROR", Message: "eviction storm"})

	entry := receiveEntry(t, client)
	if entry.Message != "eviction storm" {
		t.Fatalf("expected only the matching entry, got %+v", entry)
	}
	select {
	case raw := <-client.Entries:
		t.Fatalf("unexpected extra entry: %s", raw)
	default:
	}
}

func TestSSEWriterForwardsStructuredRecords(t *testing.T) {
	b := GetBroadcaster()
	client := b.NewClient(StreamFilters{Channel: "fetch", Level: slog.LevelDebug})
	b.RegisterClient(client)
	t.Cleanup(func() { b.UnregisterClient(client) })

	w := NewSSEWriter()
	record := `{"time":"2026-01-02T03:04:05Z","level":"INFO","channel":"fetch","msg":"Fetch attempt succeeded"}`
	if _, err := w.Write([]byte(record)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entry := receiveEntry(t, client)
	if entry.Channel != "fetch" || entry.Message != "Fetch attempt succeeded" {
		t.Errorf("unexpected entry %+v", entry)
	}
	if entry.Timestamp != "2026-01-02T03:04:05Z" {
		t.Errorf("expected timestamp preserved, got %q", entry.Timestamp)
	}
}
