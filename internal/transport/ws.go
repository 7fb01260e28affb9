package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coder/websocket"

	"github.com/corvale/chorus/internal/protocol"
)

// maxEnvelopeBytes caps a single wire frame. Full-state broadcasts carry the
// whole queue and FILES_AVAILABLE the whole catalogue, so frames grow with
// the library and can far exceed the 32KiB default read limit.
const maxEnvelopeBytes = 16 << 20

// wsConn adapts a WebSocket connection to the Conn interface, carrying one
// JSON envelope per text frame.
type wsConn struct {
	conn *websocket.Conn
}

// Dial connects to a coordinator's WebSocket endpoint.
func Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial coordinator: %w", err)
	}
	conn.SetReadLimit(maxEnvelopeBytes)
	return &wsConn{conn: conn}, nil
}

// NewWebSocketConn wraps an already-accepted server-side connection.
func NewWebSocketConn(conn *websocket.Conn) Conn {
	conn.SetReadLimit(maxEnvelopeBytes)
	return &wsConn{conn: conn}
}

func (c *wsConn) Send(env protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := c.conn.Write(context.Background(), websocket.MessageText, data); err != nil {
		return ErrClosed
	}
	return nil
}

func (c *wsConn) Receive() (protocol.Envelope, error) {
	_, data, err := c.conn.Read(context.Background())
	if err != nil {
		return protocol.Envelope{}, ErrClosed
	}
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return protocol.Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	return env, nil
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
