package event

import (
	"encoding/json"
	"time"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"
)

// Server -> client events.
const (
	EventNewMessage   = "new_message"
	EventDeliveryAck  = "delivery_ack"
	EventChatUpdated  = "chat_updated"
	EventUnreadCount  = "unread_count"
	EventMessagesRead = "messages_read"
	EventTyping       = "typing"
	EventError        = "error"
)

// Client -> server events.
const (
	EventSendMessage = "send_message"
	EventMarkRead    = "mark_read"
)

// WsEvent is the envelope every frame on the socket uses, in both directions.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// New wraps a payload into an envelope. Marshal failures degrade to an
// empty payload rather than dropping the event type.
func New(name string, payload any) WsEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = nil
	}
	return WsEvent{Event: name, Payload: raw}
}

// SendMessagePayload is the inbound send_message body.
type SendMessagePayload struct {
	ChatID     string  `json:"chatId"`
	ReceiverID string  `json:"receiverId"`
	Content    string  `json:"content"`
	ReplyToID  *string `json:"replyToId"`
}

// MarkReadPayload is the inbound mark_read body.
type MarkReadPayload struct {
	ChatID string `json:"chatId"`
}

// TypingPayload is relayed verbatim to the chat peer.
type TypingPayload struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// NewMessagePayload carries the persisted message to the receiver.
type NewMessagePayload struct {
	Message model.MessageView `json:"message"`
}

// DeliveryAckPayload is pushed back to the sender's originating connection.
type DeliveryAckPayload struct {
	MessageID string    `json:"messageId"`
	ChatID    string    `json:"chatId"`
	Status    string    `json:"status"`
	SentAt    time.Time `json:"sentAt"`
}

// ChatUpdatedPayload carries the refreshed summary of one chat.
type ChatUpdatedPayload struct {
	Chat model.ChatListItem `json:"chat"`
}

// UnreadCountPayload carries a user's total unread count across all chats.
type UnreadCountPayload struct {
	Total int `json:"total"`
}

// MessagesReadPayload tells the peer their messages in a chat were read.
type MessagesReadPayload struct {
	ChatID   string    `json:"chatId"`
	ReaderID string    `json:"readerId"`
	ReadAt   time.Time `json:"readAt"`
}

// ErrorPayload reports a failed inbound operation to the calling connection.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
