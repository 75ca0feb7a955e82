package websocket

import (
	"context"
	"log/slog"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one subscribed browser connection. The hub owns the send
// channel's lifetime; the client owns the conn.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	send   chan []byte
	logger *slog.Logger
}

func NewClient(hub *Hub, conn *ws.Conn, logger *slog.Logger) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: logger,
	}
}

// Run subscribes the client to the hub and services the connection until
// either side closes. Inbound frames are drained and discarded: the
// stream is one-way, server to browser.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.deliver(ctx, cancel)

	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			if ctx.Err() == nil && ws.CloseStatus(err) == -1 {
				c.logger.Debug("websocket read ended", "error", err)
			}
			return
		}
	}
}

// deliver pushes hub broadcasts to the connection, pinging between
// messages so dead peers are noticed. Any failure cancels the read loop
// and tears the connection down.
func (c *Client) deliver(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// Hub unregistered this client.
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, ws.MessageText, msg)
			wcancel()
			if err != nil {
				c.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				c.logger.Debug("websocket ping failed", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
