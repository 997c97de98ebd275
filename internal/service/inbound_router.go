package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/event"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"

	"go.uber.org/zap"
)

// InboundRouter turns client-originated socket events into service calls.
// It satisfies the hub's router contract without the hub depending on any
// service, so wiring stays acyclic.
type InboundRouter struct {
	messages MessageService
	chats    repo.ChatRepository
	notifier Notifier
	logger   *zap.Logger
}

func NewInboundRouter(messages MessageService, chats repo.ChatRepository, notifier Notifier, logger *zap.Logger) *InboundRouter {
	return &InboundRouter{
		messages: messages,
		chats:    chats,
		notifier: notifier,
		logger:   logger,
	}
}

func (r *InboundRouter) HandleInbound(ctx context.Context, userID, connectionID string, ev event.WsEvent) *event.ErrorPayload {
	switch ev.Event {
	case event.EventSendMessage:
		var p event.SendMessagePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return &event.ErrorPayload{Code: "bad_payload", Message: "malformed send_message payload"}
		}
		req := SendRequest{
			ChatID:             p.ChatID,
			SenderID:           userID,
			ReceiverID:         p.ReceiverID,
			Content:            p.Content,
			OriginConnectionID: connectionID,
		}
		if p.ReplyToID != nil {
			req.ReplyToID = *p.ReplyToID
		}
		if _, err := r.messages.Send(ctx, req); err != nil {
			return errorPayload(err)
		}
		return nil

	case event.EventMarkRead:
		var p event.MarkReadPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return &event.ErrorPayload{Code: "bad_payload", Message: "malformed mark_read payload"}
		}
		if err := r.messages.MarkRead(ctx, p.ChatID, userID); err != nil {
			return errorPayload(err)
		}
		return nil

	case event.EventTyping:
		var p event.TypingPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return &event.ErrorPayload{Code: "bad_payload", Message: "malformed typing payload"}
		}
		chat, err := r.chats.FindByID(ctx, p.ChatID)
		if err != nil {
			return errorPayload(err)
		}
		p.UserID = userID
		r.notifier.PushToUser(OtherParticipant(chat, userID), event.New(event.EventTyping, p))
		return nil

	default:
		r.logger.Debug("unknown inbound event", zap.String("event", ev.Event))
		return &event.ErrorPayload{Code: "unknown_event", Message: "unsupported event: " + ev.Event}
	}
}

func errorPayload(err error) *event.ErrorPayload {
	switch {
	case errors.Is(err, repo.ErrValidation):
		return &event.ErrorPayload{Code: "validation", Message: err.Error()}
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, repo.ErrInvalidID):
		return &event.ErrorPayload{Code: "not_found", Message: "chat not found"}
	default:
		return &event.ErrorPayload{Code: "internal", Message: "operation failed"}
	}
}
