package websocket

import (
	"context"
	"sync"
	"time"

	"truthgate-api/internal/domain/user"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxFrameBytes  = 8 * 1024
	sendQueueDepth = 256
)

// Client is one authenticated chat socket bound to a single conversation.
type Client struct {
	ID             string
	Actor          user.Actor
	ConversationID uuid.UUID
	Conn           *websocket.Conn
	Send           chan []byte

	mu       sync.Mutex
	channels map[string]bool
}

func NewClient(conn *websocket.Conn, actor user.Actor, conversationID uuid.UUID) *Client {
	return &Client{
		ID:             uuid.New().String(),
		Actor:          actor,
		ConversationID: conversationID,
		Conn:           conn,
		Send:           make(chan []byte, sendQueueDepth),
		channels:       make(map[string]bool),
	}
}

func (c *Client) subscribe(channel string) {
	c.mu.Lock()
	c.channels[channel] = true
	c.mu.Unlock()
}

// Channels returns a copy of the subscribed channel names.
func (c *Client) Channels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	channels := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		channels = append(channels, ch)
	}
	return channels
}

// WriteLoop is the only writer on Conn. It drains Send in order and pings
// the peer until Send is closed or ctx is done.
func (c *Client) WriteLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage queues msg without blocking. A full queue drops the frame.
func (c *Client) SendMessage(msg []byte) {
	select {
	case c.Send <- msg:
	default:
	}
}
