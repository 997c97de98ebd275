package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/db"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type ChatRepository interface {
	Insert(ctx context.Context, chat *model.Chat) (*model.Chat, error)
	FindByKey(ctx context.Context, chatKey string) (*model.Chat, error)
	FindByID(ctx context.Context, chatID string) (*model.Chat, error)
	ListForUser(ctx context.Context, userID string) ([]model.Chat, error)
	ApplyMessagePreview(ctx context.Context, chatID, senderID, receiverID, content string, sentAt time.Time) error
	ResetUnread(ctx context.Context, chatID, readerID string) error
}

type chatRepository struct {
	mongoRepo *db.Repository[model.Chat]
	logger    *zap.Logger
}

func NewChatRepository(mongoRepo *db.Repository[model.Chat], logger *zap.Logger) ChatRepository {
	return &chatRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

// Insert persists a new chat. A concurrent creation for the same pair trips
// the unique chat_key index; that surfaces as ErrDuplicateKey so the caller
// can re-read the winning row.
func (r *chatRepository) Insert(ctx context.Context, chat *model.Chat) (*model.Chat, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.mongoRepo.Create(ctx, *chat)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Debug("chat creation lost the race",
				zap.String("chat_key", chat.ChatKey),
			)
			return nil, ErrDuplicateKey
		}
		r.logger.Error("failed to insert chat",
			zap.String("chat_key", chat.ChatKey),
			zap.Error(err),
		)
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		chat.ID = oid
	}
	return chat, nil
}

func (r *chatRepository) FindByKey(ctx context.Context, chatKey string) (*model.Chat, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	chat, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("chat_key", chatKey).Build())
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find chat by key: %w", err)
	}
	return chat, nil
}

func (r *chatRepository) FindByID(ctx context.Context, chatID string) (*model.Chat, error) {
	if chatID == "" {
		return nil, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	chat, err := r.mongoRepo.FindByID(ctx, chatID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		if _, hexErr := primitive.ObjectIDFromHex(chatID); hexErr != nil {
			return nil, ErrInvalidID
		}
		return nil, fmt.Errorf("find chat by id: %w", err)
	}
	return chat, nil
}

// ListForUser returns every chat where the user occupies either slot, newest
// activity first.
func (r *chatRepository) ListForUser(ctx context.Context, userID string) ([]model.Chat, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Or(
		bson.M{"user_a_id": userID},
		bson.M{"user_b_id": userID},
	).Build()

	opts := options.Find().SetSort(bson.D{{Key: "last_message_time", Value: -1}})
	chats, err := r.mongoRepo.FindAll(ctx, filter, opts)
	if err != nil {
		r.logger.Error("failed to list chats", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// ApplyMessagePreview updates the preview fields and increments the unread
// counter of the receiver's slot, all in one single-document update so the
// increment is atomic rather than read-modify-write. The receiver's slot is
// resolved by matching the receiver id inside the filter itself.
func (r *chatRepository) ApplyMessagePreview(ctx context.Context, chatID, senderID, receiverID, content string, sentAt time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	preview := bson.M{
		"last_message":           content,
		"last_message_time":      sentAt,
		"last_message_sender_id": senderID,
	}

	collection := r.mongoRepo.Collection()

	result, err := collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "user_a_id": receiverID},
		bson.M{"$set": preview, "$inc": bson.M{"unread_count_a": 1}},
	)
	if err != nil {
		return fmt.Errorf("apply message preview: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	result, err = collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "user_b_id": receiverID},
		bson.M{"$set": preview, "$inc": bson.M{"unread_count_b": 1}},
	)
	if err != nil {
		return fmt.Errorf("apply message preview: %w", err)
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("receiver matches neither chat slot",
			zap.String("chat_id", chatID),
			zap.String("receiver_id", receiverID),
		)
		return ErrNotFound
	}
	return nil
}

// ResetUnread zeroes the unread counter of the reader's slot. A reader that
// matches neither slot is a no-op, matching the mark-read idempotency rule.
func (r *chatRepository) ResetUnread(ctx context.Context, chatID, readerID string) error {
	objectID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	collection := r.mongoRepo.Collection()

	result, err := collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "user_a_id": readerID},
		bson.M{"$set": bson.M{"unread_count_a": 0}},
	)
	if err != nil {
		return fmt.Errorf("reset unread: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	_, err = collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "user_b_id": readerID},
		bson.M{"$set": bson.M{"unread_count_b": 0}},
	)
	if err != nil {
		return fmt.Errorf("reset unread: %w", err)
	}
	return nil
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
