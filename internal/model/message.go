package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Delivery status values. Transitions are monotonic: sent -> delivered -> read.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// Message kinds. Media messages carry attachment URLs; only text is
// elaborated in the core flows.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

// Message represents a chat message in MongoDB. Content is immutable once
// created; only the status fields change, via bulk mark-read.
type Message struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ChatID      primitive.ObjectID  `json:"chatId" bson:"chat_id"`
	SenderID    string              `json:"senderId" bson:"sender_id"`
	ReceiverID  string              `json:"receiverId" bson:"receiver_id"`
	Content     string              `json:"content" bson:"content"`
	SentAt      time.Time           `json:"sentAt" bson:"sent_at"`
	Status      string              `json:"status" bson:"status"`
	Type        string              `json:"type" bson:"type"`
	ReplyToID   *primitive.ObjectID `json:"replyToId" bson:"reply_to_id,omitempty"`
	Attachments []string            `json:"attachments" bson:"attachments,omitempty"`
	ReadAt      *time.Time          `json:"readAt" bson:"read_at,omitempty"`
}

// MessageView is a message annotated with the sender's profile snapshot,
// resolved at read time.
type MessageView struct {
	ID      string    `json:"id"`
	ChatID  string    `json:"chatId"`
	Sender  Profile   `json:"sender"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sentAt"`
	Status  string    `json:"status"`
	Type    string    `json:"type"`
}

// ChatHistory is the fetch-messages response: the newest messages in
// presentation (oldest-first) order plus the other participant's profile.
type ChatHistory struct {
	Messages  []MessageView `json:"messages"`
	OtherUser Profile       `json:"otherUser"`
}
