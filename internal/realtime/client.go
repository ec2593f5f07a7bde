package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

// Conn is the subset of *websocket.Conn the hub drives, extracted so tests
// can substitute an in-memory transport.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Client is one live transport session belonging to exactly one
// authenticated user. It is owned by the Registry for its lifetime; the
// room index holds it only by id.
type Client struct {
	id       string
	userID   uint
	username string
	conn     Conn

	// writeMu serializes writes to the transport. It is per-connection, so
	// a slow peer never blocks delivery to others.
	writeMu sync.Mutex

	closed   atomic.Bool
	teardown sync.Once

	done chan struct{}
}

func newClient(conn Conn, identity Identity) *Client {
	return &Client{
		id:       uuid.New().String(),
		userID:   identity.ID,
		username: identity.Username,
		conn:     conn,
		done:     make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) UserID() uint { return c.userID }

func (c *Client) Username() string { return c.username }

// write sends one text frame to the peer. The first failure marks the
// client closed; every later write returns ErrClientClosed without touching
// the transport.
func (c *Client) write(data []byte) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.markClosed()
		return err
	}
	return nil
}

func (c *Client) writeFrame(f *Frame) error {
	return c.write(f.encode())
}

func (c *Client) writeError(code, message string) error {
	return c.write(NewErrorFrame(code, message).encode())
}

// markClosed flips the closed flag and unblocks the ping loop. Safe to call
// more than once.
func (c *Client) markClosed() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.done)
	}
}

// pingLoop keeps the connection live-checked. A peer that stops answering
// pings fails the read deadline, which surfaces as a read error and drives
// the normal teardown path.
func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
