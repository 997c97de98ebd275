package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"

	"go.uber.org/zap"
)

// ChatKey derives the canonical key for an unordered user pair: the two ids
// sorted lexicographically and joined with "_", which cannot occur inside a
// hex object id. ChatKey(a, b) == ChatKey(b, a) for all pairs.
func ChatKey(userAID, userBID string) string {
	if userBID < userAID {
		userAID, userBID = userBID, userAID
	}
	return userAID + "_" + userBID
}

// OtherParticipant resolves the peer of userID in a chat. The chat key is
// ground truth; the stored slot fields are only a fallback for legacy rows
// whose key is missing or malformed.
func OtherParticipant(chat *model.Chat, userID string) string {
	if parts := strings.Split(chat.ChatKey, "_"); len(parts) == 2 {
		if parts[0] == userID {
			return parts[1]
		}
		if parts[1] == userID {
			return parts[0]
		}
	}
	if chat.UserAID == userID {
		return chat.UserBID
	}
	return chat.UserAID
}

type ChatService interface {
	GetOrCreateChat(ctx context.Context, userAID, userBID string) (*model.Chat, error)
	ListChats(ctx context.Context, userID string) ([]model.ChatListItem, error)
	TotalUnread(ctx context.Context, userID string) (int, error)
}

type chatService struct {
	chats    repo.ChatRepository
	messages repo.MessageRepository
	users    repo.UserRepository
	logger   *zap.Logger
}

func NewChatService(chats repo.ChatRepository, messages repo.MessageRepository, users repo.UserRepository, logger *zap.Logger) ChatService {
	return &chatService{
		chats:    chats,
		messages: messages,
		users:    users,
		logger:   logger,
	}
}

// GetOrCreateChat returns the single chat for the pair, creating it lazily.
// Slot assignment follows argument order at creation time. Two concurrent
// first-contact calls race on the unique chat_key index; the loser re-reads
// the winner's row instead of erroring.
func (s *chatService) GetOrCreateChat(ctx context.Context, userAID, userBID string) (*model.Chat, error) {
	if userAID == "" || userBID == "" {
		return nil, fmt.Errorf("%w: both user ids are required", repo.ErrValidation)
	}
	if userAID == userBID {
		return nil, fmt.Errorf("%w: cannot open a chat with yourself", repo.ErrValidation)
	}

	key := ChatKey(userAID, userBID)

	chat, err := s.chats.FindByKey(ctx, key)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	created, err := s.chats.Insert(ctx, &model.Chat{
		ChatKey:   key,
		UserAID:   userAID,
		UserBID:   userBID,
		CreatedAt: time.Now().UTC(),
	})
	if err == nil {
		return created, nil
	}
	if errors.Is(err, repo.ErrDuplicateKey) {
		s.logger.Debug("chat already created concurrently", zap.String("chat_key", key))
		return s.chats.FindByKey(ctx, key)
	}
	return nil, err
}

// ListChats returns the user's chats newest-activity first, each with the
// peer's profile (batched in one query) and the unread count for the slot
// the requesting user occupies.
func (s *chatService) ListChats(ctx context.Context, userID string) ([]model.ChatListItem, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", repo.ErrValidation)
	}

	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return []model.ChatListItem{}, nil
	}

	otherIDs := make([]string, 0, len(chats))
	seen := make(map[string]struct{}, len(chats))
	for i := range chats {
		id := OtherParticipant(&chats[i], userID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		otherIDs = append(otherIDs, id)
	}

	profiles := s.profilesByID(ctx, otherIDs)

	items := make([]model.ChatListItem, 0, len(chats))
	for i := range chats {
		chat := &chats[i]
		otherID := OtherParticipant(chat, userID)

		other, ok := profiles[otherID]
		if !ok {
			other = s.inferPeerProfile(ctx, chat, userID, otherID)
		}

		items = append(items, model.ChatListItem{
			ChatID:              chat.ID.Hex(),
			OtherUser:           other,
			LastMessage:         chat.LastMessage,
			LastMessageTime:     chat.LastMessageTime,
			LastMessageSenderID: chat.LastMessageSenderID,
			UnreadCount:         chat.UnreadFor(userID),
		})
	}
	return items, nil
}

func (s *chatService) TotalUnread(ctx context.Context, userID string) (int, error) {
	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range chats {
		total += chats[i].UnreadFor(userID)
	}
	return total, nil
}

func (s *chatService) profilesByID(ctx context.Context, userIDs []string) map[string]model.Profile {
	profiles := make(map[string]model.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		s.logger.Warn("failed to batch-load peer profiles", zap.Error(err))
		return profiles
	}
	for i := range users {
		profiles[users[i].ID.Hex()] = model.ProfileOf(&users[i])
	}
	return profiles
}

// inferPeerProfile handles legacy rows whose slot fields drifted: the peer
// is re-derived from the most recent message before falling back to the
// uniform unknown-profile placeholder.
func (s *chatService) inferPeerProfile(ctx context.Context, chat *model.Chat, userID, otherID string) model.Profile {
	inferredID := otherID
	if last, err := s.messages.Latest(ctx, chat.ID.Hex()); err == nil {
		if last.SenderID == userID {
			inferredID = last.ReceiverID
		} else {
			inferredID = last.SenderID
		}
	}

	if user, err := s.users.FindByID(ctx, inferredID); err == nil {
		return model.ProfileOf(user)
	}
	return model.UnknownProfile(inferredID)
}
