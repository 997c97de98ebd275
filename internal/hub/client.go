package hub

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/event"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// tuning parameters
	writeWait          = 10 * time.Second       // time allowed to write a message to the peer
	pongWait           = 20 * time.Second       // time allowed to read the next pong message from the peer
	pingInterval       = (pongWait * 9) / 10    // send pings to peer with this period
	maxMessageSize     = 64 * 1024              // max inbound message size (64KB)
	sendBufSize        = 256                    // per-connection outbound buffer size
	workerPoolSize     = 16                     // number of workers to process inbound messages
	sendTimeout        = 2 * time.Second        // timeout for enqueuing outbound messages
	registerTimeout    = 5 * time.Second        // timeout for client registration
	unregisterTimeout  = 5 * time.Second        // timeout for client unregistration
	inboundSendTimeout = 500 * time.Millisecond // timeout for sending to inbound channel
)

// Client is one live connection for one user. A user may hold several
// clients at once (multi-device); presence is derived from how many remain.
type Client struct {
	ID     string // connection id, opaque to callers
	userID string
	conn   *websocket.Conn
	hub    *Hub
	egress chan event.WsEvent

	cancel         context.CancelFunc
	ctx            context.Context
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
	closed         bool
	closedMu       sync.RWMutex
}

// RegisterClient wires a fresh websocket connection into the hub.
func RegisterClient(userID string, conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		ID:         uuid.New().String(),
		userID:     userID,
		conn:       conn,
		hub:        h,
		egress:     make(chan event.WsEvent, sendBufSize),
		cancel:     cancel,
		ctx:        ctx,
		connClosed: make(chan struct{}),
	}

	select {
	case h.register <- client:
		go client.readPump()
		go client.writePump()
		h.logger.Debug("client registered",
			zap.String("connection_id", client.ID),
			zap.String("user_id", userID),
		)
		return client
	case <-time.After(registerTimeout):
		h.logger.Warn("client registration timed out", zap.String("user_id", userID))
		cancel()
		conn.Close()
		return nil
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-time.After(unregisterTimeout):
			c.hub.logger.Warn("client unregistration timed out", zap.String("connection_id", c.ID))
		}
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev event.WsEvent

			if err := c.conn.ReadJSON(&ev); err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					c.hub.logger.Debug("client disconnected", zap.String("connection_id", c.ID))
					return
				}

				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					c.hub.logger.Debug("client timed out", zap.String("connection_id", c.ID))
					return
				}

				c.hub.logger.Debug("read error",
					zap.String("connection_id", c.ID),
					zap.Error(err),
				)
				return
			}

			// Non-blocking handoff so a slow worker pool never stalls the reader.
			select {
			case c.hub.inbound <- inboundMessage{client: c, event: ev}:
			case <-time.After(inboundSendTimeout):
				c.hub.logger.Warn("inbound queue full, dropping client", zap.String("connection_id", c.ID))
				c.cancel()
				c.conn.Close()
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()
		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-c.egress:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.hub.logger.Debug("write error",
					zap.String("connection_id", c.ID),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *Client) pongHandler(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

// SafeSend attempts to enqueue an event for this connection. Returns false
// if the client is closed or the buffer stayed full past the timeout.
func (c *Client) SafeSend(ev event.WsEvent, timeout time.Duration) bool {
	if c.IsClosed() {
		return false
	}

	select {
	case <-c.ctx.Done():
		return false
	case c.egress <- ev:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		c.closedMu.Lock()
		c.closed = true
		c.closedMu.Unlock()

		c.cancel()
		close(c.egress)

		// writePump owns the conn close; force it after a grace period.
		go func() {
			select {
			case <-c.connClosed:
			case <-time.After(5 * time.Second):
				_ = c.conn.Close()
			}
		}()
	})
}

// IsClosed returns true if the client has been closed
func (c *Client) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}
