package hub

import (
	"context"
	"encoding/json"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/event"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bridge relays user-addressed events between nodes over redis pub/sub so
// a receiver connected to a different instance still gets live delivery.
// Like the rest of the fan-out layer it is fire-and-forget.
type Bridge struct {
	rdb     *redis.Client
	channel string
	nodeID  string
	logger  *zap.Logger
}

type bridgeEnvelope struct {
	Node   string        `json:"node"`
	UserID string        `json:"userId"`
	Event  event.WsEvent `json:"event"`
}

func NewBridge(addr, channel string, logger *zap.Logger) *Bridge {
	return &Bridge{
		rdb:     redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
		nodeID:  uuid.New().String(),
		logger:  logger,
	}
}

// Start subscribes and feeds remote events into the local delivery path.
// Own publications are skipped by node id so local delivery never doubles.
func (b *Bridge) Start(ctx context.Context, deliver func(userID string, ev event.WsEvent)) {
	sub := b.rdb.Subscribe(ctx, b.channel)

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env bridgeEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					b.logger.Warn("malformed bridge payload", zap.Error(err))
					continue
				}
				if env.Node == b.nodeID {
					continue
				}
				deliver(env.UserID, env.Event)
			}
		}
	}()
}

func (b *Bridge) Publish(userID string, ev event.WsEvent) {
	payload, err := json.Marshal(bridgeEnvelope{
		Node:   b.nodeID,
		UserID: userID,
		Event:  ev,
	})
	if err != nil {
		return
	}
	if err := b.rdb.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		b.logger.Debug("bridge publish failed", zap.Error(err))
	}
}

func (b *Bridge) Close() error {
	return b.rdb.Close()
}
