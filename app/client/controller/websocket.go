package controller

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the UI origin once it is deployed somewhere fixed
		return true
	},
}

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string      `json:"type"`    // "snapshot.refreshed", "ping"
	Payload interface{} `json:"payload"` // Event-specific data
}

// HandleWebSocket upgrades the connection and streams snapshot-refresh
// events. Events carry no state: the client re-reads /v1/scholarships (or its
// other slots) when one arrives.
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			c.App.Logger.Debug("Failed to close WebSocket connection", zap.Error(cerr))
		}
	}()

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	events, cancel := c.App.Syncer.Subscribe()
	defer cancel()

	// Read loop only to observe the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, rerr := conn.ReadMessage(); rerr != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev := <-events:
			msg := ServerMessage{Type: ev.Type, Payload: ev}
			if werr := conn.WriteJSON(msg); werr != nil {
				return
			}
		case <-ping.C:
			msg := ServerMessage{Type: "ping", Payload: map[string]int64{"timestamp": time.Now().Unix()}}
			if werr := conn.WriteJSON(msg); werr != nil {
				return
			}
		}
	}
}
