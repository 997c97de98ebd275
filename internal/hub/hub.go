package hub

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"net/http"
	"sync"
	"time"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/event"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const shardCount = 64 // tune: 16/64/128 depending on load

// PresenceStore persists the derived online/offline state and the active
// connection-id set alongside each flip.
type PresenceStore interface {
	SetPresence(ctx context.Context, userID string, online bool, lastSeen *time.Time, connectionID string) error
}

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

type clientBucket struct {
	sync.RWMutex
	users map[string]map[string]*Client // user id -> connection id -> client
}

// Stats is a point-in-time snapshot of the registry.
type Stats struct {
	OnlineUsers int `json:"onlineUsers"`
	Connections int `json:"connections"`
}

// Hub is the presence registry and fan-out router: it tracks which users
// are reachable on which connections and delivers events to them. Delivery
// is best-effort; persistence never depends on it.
type Hub struct {
	shards     [shardCount]*clientBucket
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	connsMu sync.RWMutex
	conns   map[string]*Client // connection id -> client, for targeted acks

	presence PresenceStore
	router   InboundRouter
	bridge   *Bridge
	logger   *zap.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// InboundRouter handles client-originated events (send_message, mark_read,
// typing). Attached after construction because the message service itself
// needs the hub as its notifier.
type InboundRouter interface {
	HandleInbound(ctx context.Context, userID, connectionID string, ev event.WsEvent) *event.ErrorPayload
}

func NewHub(presence PresenceStore, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundMessage, 4096), // buffer for burst handling
		conns:      make(map[string]*Client),
		presence:   presence,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < shardCount; i++ {
		h.shards[i] = &clientBucket{
			users: make(map[string]map[string]*Client),
		}
	}

	go h.run()

	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-h.inbound:
					if !ok {
						return
					}
					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

// AttachRouter wires the inbound event handler. Must be called before the
// first connection is served.
func (h *Hub) AttachRouter(router InboundRouter) {
	h.router = router
}

// AttachBridge enables cross-node fan-out relaying.
func (h *Hub) AttachBridge(bridge *Bridge) {
	h.bridge = bridge
	bridge.Start(h.ctx, h.deliverLocal)
}

func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	if h.router == nil {
		h.logger.Warn("inbound event with no router attached", zap.String("event", ev.Event))
		return
	}
	if errPayload := h.router.HandleInbound(h.ctx, c.userID, c.ID, ev); errPayload != nil {
		c.SafeSend(event.New(event.EventError, errPayload), sendTimeout)
	}
}

// PushToUser delivers an event to every active connection of a user, here
// and (via the bridge) on peer nodes. A user with no connections anywhere
// is a silent skip: the data is already durable.
func (h *Hub) PushToUser(userID string, ev event.WsEvent) {
	h.deliverLocal(userID, ev)
	if h.bridge != nil {
		h.bridge.Publish(userID, ev)
	}
}

// PushToConnection delivers an event to one specific connection, used for
// acks addressed to the originating device only.
func (h *Hub) PushToConnection(connectionID string, ev event.WsEvent) {
	h.connsMu.RLock()
	c, ok := h.conns[connectionID]
	h.connsMu.RUnlock()
	if !ok {
		return
	}
	if !c.SafeSend(ev, sendTimeout) {
		h.logger.Debug("dropped event for stale connection",
			zap.String("connection_id", connectionID),
			zap.String("event", ev.Event),
		)
	}
}

func (h *Hub) deliverLocal(userID string, ev event.WsEvent) {
	b := h.shards[getShard(userID)]

	b.RLock()
	conns, ok := b.users[userID]
	if !ok || len(conns) == 0 {
		b.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(conns))
	for _, c := range conns {
		clients = append(clients, c)
	}
	b.RUnlock()

	// deliver without holding the shard lock
	for _, c := range clients {
		if !c.SafeSend(ev, sendTimeout) {
			h.logger.Debug("egress full, skipping connection",
				zap.String("connection_id", c.ID),
				zap.String("user_id", userID),
			)
		}
	}
}

// IsOnline reports whether the user has at least one active connection on
// this node.
func (h *Hub) IsOnline(userID string) bool {
	b := h.shards[getShard(userID)]
	b.RLock()
	defer b.RUnlock()
	return len(b.users[userID]) > 0
}

// GetStats returns the current registry size.
func (h *Hub) GetStats() Stats {
	var s Stats
	for _, b := range h.shards {
		b.RLock()
		s.OnlineUsers += len(b.users)
		for _, conns := range b.users {
			s.Connections += len(conns)
		}
		b.RUnlock()
	}
	return s
}

func getShard(userID string) uint32 {
	if userID == "" {
		return 0
	}
	sum := sha1.Sum([]byte(userID))
	return binary.BigEndian.Uint32(sum[:4]) % shardCount
}

func (h *Hub) addClient(c *Client) {
	b := h.shards[getShard(c.userID)]
	b.Lock()
	conns, ok := b.users[c.userID]
	if !ok {
		conns = make(map[string]*Client)
		b.users[c.userID] = conns
	}
	conns[c.ID] = c
	b.Unlock()

	h.connsMu.Lock()
	h.conns[c.ID] = c
	h.connsMu.Unlock()

	// Online regardless of how many connections the user already had: the
	// set-add is idempotent and presence stays derived from the set.
	if err := h.presence.SetPresence(h.ctx, c.userID, true, nil, c.ID); err != nil {
		h.logger.Warn("failed to persist online presence",
			zap.String("user_id", c.userID),
			zap.Error(err),
		)
	}
}

func (h *Hub) removeClient(c *Client) {
	b := h.shards[getShard(c.userID)]

	b.Lock()
	remaining := 0
	if conns, ok := b.users[c.userID]; ok {
		delete(conns, c.ID)
		remaining = len(conns)
		if remaining == 0 {
			delete(b.users, c.userID)
		}
	}
	b.Unlock()

	h.connsMu.Lock()
	delete(h.conns, c.ID)
	h.connsMu.Unlock()

	c.Close()

	// Only the last connection going away flips the user offline; closing
	// one of several devices must not cause presence flapping.
	online := remaining > 0
	var lastSeen *time.Time
	if !online {
		now := time.Now().UTC()
		lastSeen = &now
	}
	if err := h.presence.SetPresence(h.ctx, c.userID, online, lastSeen, c.ID); err != nil {
		h.logger.Warn("failed to persist offline presence",
			zap.String("user_id", c.userID),
			zap.Error(err),
		)
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	for _, b := range h.shards {
		b.RLock()
		for _, conns := range b.users {
			for _, c := range conns {
				c.Close()
			}
		}
		b.RUnlock()
	}

	close(h.inbound)
	h.wg.Wait()
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and registers the connection under the
// already-authenticated user identity.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(userID, conn, h)
}
