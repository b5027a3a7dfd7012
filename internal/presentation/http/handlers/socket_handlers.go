package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/messaging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = (socketPongWait * 9) / 10
	socketReadLimit  = 512
)

// SocketHandlers upgrades state stream connections and runs their pumps.
type SocketHandlers struct {
	hub      *messaging.StateHub
	logger   *logging.ChanneledLogger
	upgrader websocket.Upgrader
}

// NewSocketHandlers creates socket handlers bound to the state hub.
func NewSocketHandlers(hub *messaging.StateHub, logger *logging.ChanneledLogger) *SocketHandlers {
	return &SocketHandlers{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The panel dashboard runs on a separate origin in development.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// GetStateSocket handles GET /ws/state.
func (h *SocketHandlers) GetStateSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Socket().Warn("Websocket upgrade failed", "error", err.Error())
		return
	}

	client := messaging.NewStateClient(conn)
	h.hub.Register(client)
	h.logger.Socket().Debug("State socket connected", "remote", conn.RemoteAddr().String())

	go h.writePump(client)
	go h.readPump(client)
}

// writePump drains the client's send channel onto the wire and keeps the
// connection alive with pings.
func (h *SocketHandlers) writePump(client *messaging.StateClient) {
	ticker := time.NewTicker(socketPingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages; the state stream is one-way. It exists
// to process pongs and to notice the peer going away.
func (h *SocketHandlers) readPump(client *messaging.StateClient) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(socketReadLimit)
	client.Conn.SetReadDeadline(time.Now().Add(socketPongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(socketPongWait))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Socket().Debug("State socket closed unexpectedly", "error", err.Error())
			}
			return
		}
	}
}
