package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/db"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type MessageRepository interface {
	Insert(ctx context.Context, msg *model.Message) (*model.Message, error)
	// ListRecent returns the newest limit messages, most recent first.
	ListRecent(ctx context.Context, chatID string, limit int64) ([]model.Message, error)
	// Latest returns the most recent message of a chat, or ErrNotFound.
	Latest(ctx context.Context, chatID string) (*model.Message, error)
	// MarkRead transitions every message addressed to readerID in the chat
	// to read. Returns the number of messages that actually transitioned.
	MarkRead(ctx context.Context, chatID, readerID string, readAt time.Time) (int64, error)
	// DistinctPeers returns the ids of every user the given user has
	// exchanged messages with, excluding the user themselves.
	DistinctPeers(ctx context.Context, userID string) ([]string, error)
}

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

func NewMessageRepository(mongoRepo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

func (m *messageRepository) Insert(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg == nil || msg.ChatID.IsZero() {
		return nil, ErrValidation
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := m.mongoRepo.Create(ctx, *msg)
	if err != nil {
		m.logger.Error("failed to insert message",
			zap.String("chat_id", msg.ChatID.Hex()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("insert message: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}

	m.logger.Debug("message inserted",
		zap.String("message_id", msg.ID.Hex()),
		zap.String("chat_id", msg.ChatID.Hex()),
	)
	return msg, nil
}

func (m *messageRepository) ListRecent(ctx context.Context, chatID string, limit int64) ([]model.Message, error) {
	if chatID == "" {
		return nil, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().ObjectID("chat_id", chatID).Build()
	opts := options.Find().
		SetSort(bson.D{{Key: "sent_at", Value: -1}}).
		SetLimit(limit)

	messages, err := m.mongoRepo.FindAll(ctx, filter, opts)
	if err != nil {
		m.logger.Error("failed to list messages", zap.String("chat_id", chatID), zap.Error(err))
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

func (m *messageRepository) Latest(ctx context.Context, chatID string) (*model.Message, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	messages, err := m.ListRecent(ctx, chatID, 1)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, ErrNotFound
	}
	return &messages[0], nil
}

func (m *messageRepository) MarkRead(ctx context.Context, chatID, readerID string, readAt time.Time) (int64, error) {
	if chatID == "" || readerID == "" {
		return 0, ErrValidation
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	// Filtering on status != read keeps the operation idempotent and makes
	// backwards transitions impossible.
	filter := db.NewFilter().
		ObjectID("chat_id", chatID).
		Eq("receiver_id", readerID).
		Ne("status", model.StatusRead).
		Build()

	result, err := m.mongoRepo.UpdateMany(ctx, filter, bson.M{
		"status":  model.StatusRead,
		"read_at": readAt,
	})
	if err != nil {
		m.logger.Error("failed to mark messages read",
			zap.String("chat_id", chatID),
			zap.String("reader_id", readerID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (m *messageRepository) DistinctPeers(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, ErrValidation
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	collection := m.mongoRepo.Collection()

	received, err := collection.Distinct(ctx, "sender_id", bson.M{"receiver_id": userID})
	if err != nil {
		return nil, fmt.Errorf("distinct senders: %w", err)
	}
	sent, err := collection.Distinct(ctx, "receiver_id", bson.M{"sender_id": userID})
	if err != nil {
		return nil, fmt.Errorf("distinct receivers: %w", err)
	}

	seen := make(map[string]struct{})
	var peers []string
	for _, raw := range append(received, sent...) {
		id, ok := raw.(string)
		if !ok || id == "" || id == userID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		peers = append(peers, id)
	}
	return peers, nil
}
