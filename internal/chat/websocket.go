package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const defaultWriteWait = 10 * time.Second

// WebSocketHandler upgrades HTTP connections and runs the gateway protocol
// over them. One socket serves one ticket room for its whole lifetime.
type WebSocketHandler struct {
	gateway       *Gateway
	allowedOrigin string
	isDev         bool
	writeWait     time.Duration
}

// NewWebSocketHandler creates the /ws/chat handler. A non-positive writeWait
// falls back to the default.
func NewWebSocketHandler(gateway *Gateway, allowedOrigin string, isDev bool, writeWait time.Duration) *WebSocketHandler {
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	return &WebSocketHandler{
		gateway:       gateway,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
		writeWait:     writeWait,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}

	label := fmt.Sprintf("conn-%s", uuid.New().String()[:8])
	conn := &wsConn{ws: ws, writeWait: h.writeWait}
	session := h.gateway.NewSession(conn, label)
	slog.Info("Chat connection opened", "conn", label, "ip", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	defer func() {
		session.Close(context.Background())
		conn.markClosed()
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "conn", label)
		}
		slog.Info("Chat connection closed", "conn", label)
	}()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "conn", label)
			} else {
				slog.Debug("WebSocket read error", "error", err, "conn", label)
			}
			return
		}
		session.HandleFrame(ctx, data)
	}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

// wsConn adapts a coder/websocket connection to the chat Conn interface.
type wsConn struct {
	ws        *websocket.Conn
	writeWait time.Duration
	mu        sync.Mutex // serializes envelope writes
	closed    atomic.Bool
}

// WriteEnvelope marshals v and writes it as one text frame.
func (c *wsConn) WriteEnvelope(ctx context.Context, v interface{}) error {
	if c.closed.Load() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	writeCtx, cancel := context.WithTimeout(ctx, c.writeWait)
	defer cancel()
	return c.ws.Write(writeCtx, websocket.MessageText, data)
}

// Closed reports whether the transport has shut down.
func (c *wsConn) Closed() bool {
	return c.closed.Load()
}

func (c *wsConn) markClosed() {
	c.closed.Store(true)
}
