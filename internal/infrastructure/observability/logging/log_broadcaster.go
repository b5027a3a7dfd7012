package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LogEntry is a single log line as delivered to a streaming client.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// StreamClient is one connected log consumer (an admin dashboard tab).
type StreamClient struct {
	id      string
	Entries chan []byte
	filters StreamFilters
}

// StreamFilters narrows which log entries a client receives.
type StreamFilters struct {
	Channel Channel // "all" matches every channel
	Level   slog.Level
}

// LogBroadcaster fans log entries out to streaming clients.
type LogBroadcaster struct {
	clients    map[*StreamClient]bool
	register   chan *StreamClient
	unregister chan *StreamClient
	broadcast  chan []byte
	mu         sync.RWMutex
	stop       chan struct{}
}

var (
	broadcaster *LogBroadcaster
	once        sync.Once
)

// GetBroadcaster initializes and returns the shared LogBroadcaster.
func GetBroadcaster() *LogBroadcaster {
	once.Do(func() {
		broadcaster = &LogBroadcaster{
			clients:    make(map[*StreamClient]bool),
			register:   make(chan *StreamClient),
			unregister: make(chan *StreamClient),
			broadcast:  make(chan []byte, 1000),
			stop:       make(chan struct{}),
		}
		go broadcaster.run()
	})
	return broadcaster
}

func (b *LogBroadcaster) run() {
	for {
		select {
		case <-b.stop:
			b.mu.Lock()
			for client := range b.clients {
				delete(b.clients, client)
				close(client.Entries)
			}
			b.mu.Unlock()
			return
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Entries)
			}
			b.mu.Unlock()
		case message := <-b.broadcast:
			b.distribute(message)
		}
	}
}

// distribute sends a log entry to every client whose filters match.
func (b *LogBroadcaster) distribute(message []byte) {
	var entry LogEntry
	if err := json.Unmarshal(message, &entry); err != nil {
		return
	}
	level := ParseLevel(entry.Level)

	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients {
		channelMatch := client.filters.Channel == "all" || client.filters.Channel == Channel(entry.Channel)
		levelMatch := level >= client.filters.Level

		if channelMatch && levelMatch {
			select {
			case client.Entries <- message:
			default:
				// Slow client, drop the entry rather than stall the fan-out.
			}
		}
	}
}

// SubmitLog queues a log entry for distribution without blocking the caller.
func (b *LogBroadcaster) SubmitLog(entry LogEntry) {
	message, err := json.Marshal(entry)
	if err != nil {
		return
	}

	select {
	case b.broadcast <- message:
	default:
		// Broadcast queue full under heavy logging, drop instead of blocking.
	}
}

// NewClient creates a streaming client with the given filters. The caller
// registers it, reads from Entries, and unregisters when done.
func (b *LogBroadcaster) NewClient(filters StreamFilters) *StreamClient {
	return &StreamClient{
		id:      fmt.Sprintf("%d", time.Now().UnixNano()),
		Entries: make(chan []byte, 100),
		filters: filters,
	}
}

// RegisterClient adds a client to the fan-out set.
func (b *LogBroadcaster) RegisterClient(client *StreamClient) {
	b.register <- client
}

// UnregisterClient removes a client and closes its entry channel.
func (b *LogBroadcaster) UnregisterClient(client *StreamClient) {
	b.unregister <- client
}

// Shutdown stops the broadcaster and closes all client channels.
func (b *LogBroadcaster) Shutdown() {
	close(b.stop)
}
