package chatclient

import (
	"context"

	"github.com/coder/websocket"
)

// Conn is the transport surface a Session needs. The production
// implementation wraps a WebSocket; tests use scripted fakes.
type Conn interface {
	// Read blocks until one envelope arrives or the transport fails.
	Read(ctx context.Context) ([]byte, error)
	// Write sends one envelope.
	Write(ctx context.Context, data []byte) error
	// Close tears the transport down. Safe to call more than once.
	Close() error
}

// DialFunc opens a transport to the chat endpoint.
type DialFunc func(ctx context.Context, url string) (Conn, error)

func dialWebSocket(ctx context.Context, url string) (Conn, error) {
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{ws: ws}, nil
}

type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	return data, err
}

func (c *wsConn) Write(ctx context.Context, data []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "session closed")
}
