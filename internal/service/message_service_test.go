package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/event"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"
)

type messageTestEnv struct {
	chats    *fakeChatRepo
	messages *fakeMessageRepo
	users    *fakeUserRepo
	notifier *recordingNotifier
	svc      MessageService

	senderID   string
	receiverID string
	chatID     string
}

func newMessageTestEnv(t *testing.T) *messageTestEnv {
	t.Helper()
	env := &messageTestEnv{
		chats:    newFakeChatRepo(),
		messages: newFakeMessageRepo(),
		users:    newFakeUserRepo(),
		notifier: newRecordingNotifier(),
	}
	env.svc = NewMessageService(env.chats, env.messages, env.users, env.notifier, nil, zap.NewNop())

	env.senderID = env.users.add(model.User{Username: "sender", DisplayName: "Sender"})
	env.receiverID = env.users.add(model.User{Username: "receiver", DisplayName: "Receiver"})

	chat, err := env.chats.Insert(context.Background(), &model.Chat{
		ChatKey: ChatKey(env.senderID, env.receiverID),
		UserAID: env.senderID,
		UserBID: env.receiverID,
	})
	require.NoError(t, err)
	env.chatID = chat.ID.Hex()
	return env
}

func (e *messageTestEnv) send(t *testing.T, content string) *model.Message {
	t.Helper()
	msg, err := e.svc.Send(context.Background(), SendRequest{
		ChatID:     e.chatID,
		SenderID:   e.senderID,
		ReceiverID: e.receiverID,
		Content:    content,
	})
	require.NoError(t, err)
	return msg
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("persists, updates summary and fans out", func(t *testing.T) {
		env := newMessageTestEnv(t)

		msg := env.send(t, "hello there")
		require.Equal(t, model.StatusSent, msg.Status)
		require.False(t, msg.ID.IsZero())

		chat, err := env.chats.FindByID(ctx, env.chatID)
		require.NoError(t, err)
		require.Equal(t, "hello there", chat.LastMessage)
		require.Equal(t, env.senderID, chat.LastMessageSenderID)
		require.Equal(t, 1, chat.UnreadFor(env.receiverID))
		require.Equal(t, 0, chat.UnreadFor(env.senderID))

		names := env.notifier.eventNamesFor(env.receiverID)
		require.Contains(t, names, event.EventNewMessage)
		require.Contains(t, names, event.EventChatUpdated)
		require.Contains(t, names, event.EventUnreadCount)
	})

	t.Run("records both contacts", func(t *testing.T) {
		env := newMessageTestEnv(t)
		env.send(t, "hi")

		sender, err := env.users.FindByID(ctx, env.senderID)
		require.NoError(t, err)
		require.Contains(t, sender.Contacts, env.receiverID)

		receiver, err := env.users.FindByID(ctx, env.receiverID)
		require.NoError(t, err)
		require.Contains(t, receiver.Contacts, env.senderID)
	})

	t.Run("acks the originating connection", func(t *testing.T) {
		env := newMessageTestEnv(t)

		_, err := env.svc.Send(ctx, SendRequest{
			ChatID:             env.chatID,
			SenderID:           env.senderID,
			ReceiverID:         env.receiverID,
			Content:            "ping",
			OriginConnectionID: "conn-1",
		})
		require.NoError(t, err)

		acks := env.notifier.connPush["conn-1"]
		require.Len(t, acks, 1)
		require.Equal(t, event.EventDeliveryAck, acks[0].Event)

		var payload event.DeliveryAckPayload
		require.NoError(t, json.Unmarshal(acks[0].Payload, &payload))
		require.Equal(t, env.chatID, payload.ChatID)
		require.Equal(t, model.StatusSent, payload.Status)
	})

	t.Run("rejects blank content", func(t *testing.T) {
		env := newMessageTestEnv(t)
		_, err := env.svc.Send(ctx, SendRequest{
			ChatID:     env.chatID,
			SenderID:   env.senderID,
			ReceiverID: env.receiverID,
			Content:    "   ",
		})
		require.ErrorIs(t, err, repo.ErrValidation)
	})

	t.Run("rejects pair not matching chat", func(t *testing.T) {
		env := newMessageTestEnv(t)
		_, err := env.svc.Send(ctx, SendRequest{
			ChatID:     env.chatID,
			SenderID:   env.senderID,
			ReceiverID: "intruder",
			Content:    "hi",
		})
		require.ErrorIs(t, err, repo.ErrValidation)
	})

	t.Run("send survives summary failure and flags the chat", func(t *testing.T) {
		env := newMessageTestEnv(t)
		reconciler := &recordingReconciler{}
		env.svc = NewMessageService(env.chats, env.messages, env.users, env.notifier, reconciler, zap.NewNop())
		env.chats.previewErr = errors.New("mongo down")

		msg := env.send(t, "still goes through")
		require.False(t, msg.ID.IsZero())
		require.Equal(t, []string{env.chatID}, reconciler.dirty)
	})
}

func TestGetMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("newest window in ascending order", func(t *testing.T) {
		env := newMessageTestEnv(t)
		env.send(t, "one")
		env.send(t, "two")
		env.send(t, "three")

		history, err := env.svc.GetMessages(ctx, env.chatID, env.senderID, 2)
		require.NoError(t, err)
		require.Len(t, history.Messages, 2)
		require.Equal(t, "two", history.Messages[0].Content)
		require.Equal(t, "three", history.Messages[1].Content)
		require.Equal(t, "Receiver", history.OtherUser.DisplayName)
	})

	t.Run("deleted sender gets placeholder", func(t *testing.T) {
		env := newMessageTestEnv(t)
		env.send(t, "from a ghost")

		env.users.mu.Lock()
		delete(env.users.users, env.senderID)
		env.users.mu.Unlock()

		history, err := env.svc.GetMessages(ctx, env.chatID, env.receiverID, 10)
		require.NoError(t, err)
		require.Len(t, history.Messages, 1)
		require.Equal(t, "Unknown user", history.Messages[0].Sender.DisplayName)
		require.Equal(t, env.senderID, history.Messages[0].Sender.ID)
	})

	t.Run("unknown chat", func(t *testing.T) {
		env := newMessageTestEnv(t)
		_, err := env.svc.GetMessages(ctx, "missing", env.senderID, 10)
		require.ErrorIs(t, err, repo.ErrNotFound)
	})
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()

	t.Run("zeroes counter and transitions messages", func(t *testing.T) {
		env := newMessageTestEnv(t)
		env.send(t, "a")
		env.send(t, "b")

		chat, err := env.chats.FindByID(ctx, env.chatID)
		require.NoError(t, err)
		require.Equal(t, 2, chat.UnreadFor(env.receiverID))

		require.NoError(t, env.svc.MarkRead(ctx, env.chatID, env.receiverID))

		chat, err = env.chats.FindByID(ctx, env.chatID)
		require.NoError(t, err)
		require.Equal(t, 0, chat.UnreadFor(env.receiverID))

		msgs, err := env.messages.ListRecent(ctx, env.chatID, 10)
		require.NoError(t, err)
		for _, m := range msgs {
			require.Equal(t, model.StatusRead, m.Status)
			require.NotNil(t, m.ReadAt)
		}

		// The sender learns their messages were read.
		require.Contains(t, env.notifier.eventNamesFor(env.senderID), event.EventMessagesRead)

		// A fresh message after the reset starts the counter over at 1.
		env.send(t, "c")
		chat, err = env.chats.FindByID(ctx, env.chatID)
		require.NoError(t, err)
		require.Equal(t, 1, chat.UnreadFor(env.receiverID))
	})

	t.Run("idempotent second call", func(t *testing.T) {
		env := newMessageTestEnv(t)
		env.send(t, "a")

		require.NoError(t, env.svc.MarkRead(ctx, env.chatID, env.receiverID))
		before := len(env.notifier.eventsFor(env.senderID))

		require.NoError(t, env.svc.MarkRead(ctx, env.chatID, env.receiverID))
		after := len(env.notifier.eventsFor(env.senderID))
		require.Equal(t, before, after, "no repeat read receipt when nothing transitioned")
	})

	t.Run("reader's own outgoing messages stay untouched", func(t *testing.T) {
		env := newMessageTestEnv(t)
		env.send(t, "outgoing")

		require.NoError(t, env.svc.MarkRead(ctx, env.chatID, env.senderID))

		msgs, err := env.messages.ListRecent(ctx, env.chatID, 10)
		require.NoError(t, err)
		require.Equal(t, model.StatusSent, msgs[0].Status)
	})
}
