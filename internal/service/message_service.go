package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/event"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const defaultFetchLimit = 50

// Notifier is the live fan-out surface. Implementations deliver best-effort:
// a push to a user with no active connections is a silent no-op, and no
// failure here ever propagates back into the persistence path.
type Notifier interface {
	PushToUser(userID string, ev event.WsEvent)
	PushToConnection(connectionID string, ev event.WsEvent)
}

// NopNotifier discards all events. Used when no live layer is attached.
type NopNotifier struct{}

func (NopNotifier) PushToUser(string, event.WsEvent)       {}
func (NopNotifier) PushToConnection(string, event.WsEvent) {}

// SummaryReconciler is the pluggable repair hook for the message-log /
// chat-summary dual write. It is invoked outside the synchronous send path
// when the summary update fails after the message was durably appended.
type SummaryReconciler interface {
	MarkDirty(chatID string)
}

// SendRequest carries one message send. OriginConnectionID, when set, routes
// the delivery ack back to the connection the send came from.
type SendRequest struct {
	ChatID             string
	SenderID           string
	ReceiverID         string
	Content            string
	ReplyToID          string
	OriginConnectionID string
}

type MessageService interface {
	Send(ctx context.Context, req SendRequest) (*model.Message, error)
	GetMessages(ctx context.Context, chatID, currentUserID string, limit int64) (*model.ChatHistory, error)
	MarkRead(ctx context.Context, chatID, readerID string) error
}

type messageService struct {
	chats      repo.ChatRepository
	messages   repo.MessageRepository
	users      repo.UserRepository
	notifier   Notifier
	reconciler SummaryReconciler
	logger     *zap.Logger
}

func NewMessageService(
	chats repo.ChatRepository,
	messages repo.MessageRepository,
	users repo.UserRepository,
	notifier Notifier,
	reconciler SummaryReconciler,
	logger *zap.Logger,
) MessageService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &messageService{
		chats:      chats,
		messages:   messages,
		users:      users,
		notifier:   notifier,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Send appends the message (source of truth), updates the chat summary, then
// fans out to the receiver's connections and acks the sender's originating
// connection. Fan-out never fails the send.
func (s *messageService) Send(ctx context.Context, req SendRequest) (*model.Message, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", repo.ErrValidation)
	}
	if req.ChatID == "" || req.SenderID == "" || req.ReceiverID == "" {
		return nil, fmt.Errorf("%w: chat, sender and receiver ids are required", repo.ErrValidation)
	}

	chat, err := s.chats.FindByID(ctx, req.ChatID)
	if err != nil {
		return nil, err
	}
	if ChatKey(req.SenderID, req.ReceiverID) != chat.ChatKey {
		return nil, fmt.Errorf("%w: sender/receiver pair does not match chat participants", repo.ErrValidation)
	}

	msg := &model.Message{
		ChatID:     chat.ID,
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		SentAt:     time.Now().UTC(),
		Status:     model.StatusSent,
		Type:       model.MessageTypeText,
	}
	if req.ReplyToID != "" {
		if oid, err := primitive.ObjectIDFromHex(req.ReplyToID); err == nil {
			msg.ReplyToID = &oid
		}
	}

	msg, err = s.messages.Insert(ctx, msg)
	if err != nil {
		return nil, err
	}

	if err := s.chats.ApplyMessagePreview(ctx, req.ChatID, req.SenderID, req.ReceiverID, req.Content, msg.SentAt); err != nil {
		// The message is already durable; the summary drifts until the
		// reconciler recomputes it. Keep the send successful.
		s.logger.Error("summary update failed after message append",
			zap.String("chat_id", req.ChatID),
			zap.String("message_id", msg.ID.Hex()),
			zap.Error(err),
		)
		if s.reconciler != nil {
			s.reconciler.MarkDirty(req.ChatID)
		}
	}

	// Contacts stay symmetric: both sides gain each other on any exchange.
	if err := s.users.AddContact(ctx, req.SenderID, req.ReceiverID); err != nil {
		s.logger.Debug("failed to record sender contact", zap.Error(err))
	}
	if err := s.users.AddContact(ctx, req.ReceiverID, req.SenderID); err != nil {
		s.logger.Debug("failed to record receiver contact", zap.Error(err))
	}

	s.fanOutNewMessage(ctx, msg, req.OriginConnectionID)
	return msg, nil
}

func (s *messageService) fanOutNewMessage(ctx context.Context, msg *model.Message, originConnID string) {
	sender := s.resolveProfile(ctx, msg.SenderID)

	view := model.MessageView{
		ID:      msg.ID.Hex(),
		ChatID:  msg.ChatID.Hex(),
		Sender:  sender,
		Content: msg.Content,
		SentAt:  msg.SentAt,
		Status:  msg.Status,
		Type:    msg.Type,
	}
	s.notifier.PushToUser(msg.ReceiverID, event.New(event.EventNewMessage, event.NewMessagePayload{Message: view}))

	// Refreshed summary and total unread for the receiver's badge.
	if chat, err := s.chats.FindByID(ctx, msg.ChatID.Hex()); err == nil {
		s.notifier.PushToUser(msg.ReceiverID, event.New(event.EventChatUpdated, event.ChatUpdatedPayload{
			Chat: model.ChatListItem{
				ChatID:              chat.ID.Hex(),
				OtherUser:           sender,
				LastMessage:         chat.LastMessage,
				LastMessageTime:     chat.LastMessageTime,
				LastMessageSenderID: chat.LastMessageSenderID,
				UnreadCount:         chat.UnreadFor(msg.ReceiverID),
			},
		}))
	}
	s.pushTotalUnread(ctx, msg.ReceiverID)

	if originConnID != "" {
		s.notifier.PushToConnection(originConnID, event.New(event.EventDeliveryAck, event.DeliveryAckPayload{
			MessageID: msg.ID.Hex(),
			ChatID:    msg.ChatID.Hex(),
			Status:    msg.Status,
			SentAt:    msg.SentAt,
		}))
	}
}

// GetMessages returns the newest limit messages re-ordered oldest-first for
// display, each with a sender snapshot, plus the peer's profile. A sender
// whose account no longer resolves gets the unknown-user placeholder rather
// than failing the fetch.
func (s *messageService) GetMessages(ctx context.Context, chatID, currentUserID string, limit int64) (*model.ChatHistory, error) {
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	otherID := OtherParticipant(chat, currentUserID)
	otherProfile := s.resolveProfile(ctx, otherID)

	profiles := map[string]model.Profile{otherID: otherProfile}
	if users, err := s.users.FindByIDs(ctx, []string{chat.UserAID, chat.UserBID}); err == nil {
		for i := range users {
			profiles[users[i].ID.Hex()] = model.ProfileOf(&users[i])
		}
	}

	messages, err := s.messages.ListRecent(ctx, chatID, limit)
	if err != nil {
		return nil, err
	}

	views := make([]model.MessageView, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		m := &messages[i]
		sender, ok := profiles[m.SenderID]
		if !ok {
			sender = model.UnknownProfile(m.SenderID)
		}
		views = append(views, model.MessageView{
			ID:      m.ID.Hex(),
			ChatID:  m.ChatID.Hex(),
			Sender:  sender,
			Content: m.Content,
			SentAt:  m.SentAt,
			Status:  m.Status,
			Type:    m.Type,
		})
	}

	return &model.ChatHistory{Messages: views, OtherUser: otherProfile}, nil
}

// MarkRead zeroes the reader's unread counter and bulk-transitions every
// message addressed to the reader in the chat to read. Idempotent: a second
// call is a no-op.
func (s *messageService) MarkRead(ctx context.Context, chatID, readerID string) error {
	if chatID == "" || readerID == "" {
		return fmt.Errorf("%w: chat and reader ids are required", repo.ErrValidation)
	}

	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return err
	}

	if err := s.chats.ResetUnread(ctx, chatID, readerID); err != nil {
		return err
	}

	readAt := time.Now().UTC()
	transitioned, err := s.messages.MarkRead(ctx, chatID, readerID, readAt)
	if err != nil {
		return err
	}

	if transitioned > 0 {
		peer := OtherParticipant(chat, readerID)
		s.notifier.PushToUser(peer, event.New(event.EventMessagesRead, event.MessagesReadPayload{
			ChatID:   chatID,
			ReaderID: readerID,
			ReadAt:   readAt,
		}))
	}
	s.pushTotalUnread(ctx, readerID)
	return nil
}

func (s *messageService) pushTotalUnread(ctx context.Context, userID string) {
	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		s.logger.Debug("failed to compute total unread for push", zap.String("user_id", userID), zap.Error(err))
		return
	}
	total := 0
	for i := range chats {
		total += chats[i].UnreadFor(userID)
	}
	s.notifier.PushToUser(userID, event.New(event.EventUnreadCount, event.UnreadCountPayload{Total: total}))
}

func (s *messageService) resolveProfile(ctx context.Context, userID string) model.Profile {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) && !errors.Is(err, repo.ErrInvalidID) {
			s.logger.Warn("profile lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		return model.UnknownProfile(userID)
	}
	return model.ProfileOf(user)
}
