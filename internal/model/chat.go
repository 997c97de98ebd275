package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat represents a two-party conversation in MongoDB. Exactly one chat
// exists per unordered user pair, enforced by a unique index on chat_key.
//
// Slot A/B is assigned by argument order at creation time and carries no
// meaning beyond addressing the per-side unread counters; the chat key is
// ground truth for who the participants are.
type Chat struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ChatKey             string             `json:"chatKey" bson:"chat_key"`
	UserAID             string             `json:"userAId" bson:"user_a_id"`
	UserBID             string             `json:"userBId" bson:"user_b_id"`
	LastMessage         string             `json:"lastMessage" bson:"last_message"`
	LastMessageTime     time.Time          `json:"lastMessageTime" bson:"last_message_time"`
	LastMessageSenderID string             `json:"lastMessageSenderId" bson:"last_message_sender_id"`
	UnreadCountA        int                `json:"unreadCountA" bson:"unread_count_a"`
	UnreadCountB        int                `json:"unreadCountB" bson:"unread_count_b"`
	CreatedAt           time.Time          `json:"createdAt" bson:"created_at"`
}

// UnreadFor returns the unread counter of the slot the given user occupies.
// Slot drift (neither slot matching) reads as zero.
func (c *Chat) UnreadFor(userID string) int {
	switch userID {
	case c.UserAID:
		return c.UnreadCountA
	case c.UserBID:
		return c.UnreadCountB
	}
	return 0
}

// ChatListItem is one entry of a user's chat list, enriched with the other
// participant's profile and the unread count for the requesting side.
type ChatListItem struct {
	ChatID              string    `json:"chatId"`
	OtherUser           Profile   `json:"otherUser"`
	LastMessage         string    `json:"lastMessage"`
	LastMessageTime     time.Time `json:"lastMessageTime"`
	LastMessageSenderID string    `json:"lastMessageSenderId"`
	UnreadCount         int       `json:"unreadCount"`
}
