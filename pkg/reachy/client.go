package reachy

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultAddr is the daemon's control endpoint on the robot itself.
const DefaultAddr = "localhost:8000"

const writeTimeout = 2 * time.Second

// targetMessage is one pose command on the wire.
type targetMessage struct {
	Type string `json:"type"`
	Pose
}

// Client talks to the Reachy Mini daemon over its websocket API.
// It is safe for concurrent use.
type Client struct {
	logger *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// Dial connects to the daemon at addr (host:port).
func Dial(addr string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("reachy: dial %s: %w", u.String(), err)
	}
	logger.Info("reachy: connected", "addr", addr)
	return &Client{logger: logger, conn: conn}, nil
}

// SetTarget pushes a pose target. The pose is clamped to safe joint ranges
// before sending.
func (c *Client) SetTarget(pose Pose) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("reachy: client closed")
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	msg := targetMessage{Type: "set_target", Pose: pose.Clamp()}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("reachy: set_target: %w", err)
	}
	return nil
}

// Close sends a close frame and tears down the connection. Safe to call
// more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
