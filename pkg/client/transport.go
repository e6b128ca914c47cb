package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one open transport connection carrying whole binary messages.
// ReadMessage is called from a single reader goroutine; WriteMessage and
// Close may be called from the client loop concurrently with it.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) { return f(ctx, url) }

// WebSocketDialer dials game servers over WebSocket.
type WebSocketDialer struct {
	// Dialer is the underlying dialer (default: websocket.DefaultDialer).
	Dialer *websocket.Dialer

	// Header is sent with the upgrade request. Game servers commonly
	// check Origin.
	Header http.Header

	// ReadLimit bounds the size of one inbound message (default: 1 MiB).
	ReadLimit int64

	// WriteTimeout bounds one outbound write (default: 5s).
	WriteTimeout time.Duration
}

// Dial opens a WebSocket connection to url.
func (d *WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	limit := d.ReadLimit
	if limit <= 0 {
		limit = 1 << 20
	}
	ws.SetReadLimit(limit)

	timeout := d.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &wsConn{ws: ws, writeTimeout: timeout}, nil
}

// wsConn adapts a gorilla connection to Conn. Text messages are not part
// of the game protocol and are skipped.
type wsConn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		typ, msg, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if typ == websocket.BinaryMessage {
			return msg, nil
		}
	}
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(websocket.BinaryMessage, data)
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(time.Second))
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}

// isExpectedClose reports whether err is an ordinary end of connection
// rather than a transport failure worth a warning.
func isExpectedClose(err error) bool {
	if err == nil || errors.Is(err, ErrClientClosed) {
		return true
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}
