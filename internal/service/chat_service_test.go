package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"
)

func TestChatKey(t *testing.T) {
	t.Run("symmetric", func(t *testing.T) {
		if ChatKey("alice", "bob") != ChatKey("bob", "alice") {
			t.Errorf("key must not depend on argument order")
		}
	})

	t.Run("sorted join", func(t *testing.T) {
		if got := ChatKey("bob", "alice"); got != "alice_bob" {
			t.Errorf("expected alice_bob, got %q", got)
		}
	})
}

func TestOtherParticipant(t *testing.T) {
	chat := &model.Chat{ChatKey: "u1_u2", UserAID: "u2", UserBID: "u1"}

	t.Run("key is ground truth", func(t *testing.T) {
		if got := OtherParticipant(chat, "u1"); got != "u2" {
			t.Errorf("expected u2, got %q", got)
		}
		if got := OtherParticipant(chat, "u2"); got != "u1" {
			t.Errorf("expected u1, got %q", got)
		}
	})

	t.Run("slot fallback on malformed key", func(t *testing.T) {
		legacy := &model.Chat{ChatKey: "broken", UserAID: "u1", UserBID: "u2"}
		if got := OtherParticipant(legacy, "u1"); got != "u2" {
			t.Errorf("expected u2, got %q", got)
		}
	})
}

func TestGetOrCreateChat(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("creates then returns the same chat", func(t *testing.T) {
		chats := newFakeChatRepo()
		svc := NewChatService(chats, newFakeMessageRepo(), newFakeUserRepo(), logger)

		first, err := svc.GetOrCreateChat(ctx, "u2", "u1")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if first.ChatKey != "u1_u2" {
			t.Errorf("expected canonical key u1_u2, got %q", first.ChatKey)
		}
		if first.UserAID != "u2" || first.UserBID != "u1" {
			t.Errorf("slots must follow argument order, got A=%q B=%q", first.UserAID, first.UserBID)
		}

		second, err := svc.GetOrCreateChat(ctx, "u1", "u2")
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("swapped argument order must resolve to the same chat")
		}
	})

	t.Run("recovers from lost creation race", func(t *testing.T) {
		chats := newFakeChatRepo()
		svc := NewChatService(chats, newFakeMessageRepo(), newFakeUserRepo(), logger)

		// The winner's row lands between our miss and our insert.
		winner, err := chats.Insert(ctx, &model.Chat{ChatKey: ChatKey("u1", "u2"), UserAID: "u1", UserBID: "u2"})
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		chats.nextInsertErr = repo.ErrDuplicateKey

		got, err := svc.GetOrCreateChat(ctx, "u1", "u2")
		if err != nil {
			t.Fatalf("expected recovery, got %v", err)
		}
		if got.ID != winner.ID {
			t.Errorf("loser must re-read the winner's chat")
		}
	})

	t.Run("rejects self chat", func(t *testing.T) {
		svc := NewChatService(newFakeChatRepo(), newFakeMessageRepo(), newFakeUserRepo(), logger)
		_, err := svc.GetOrCreateChat(ctx, "u1", "u1")
		if !errors.Is(err, repo.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects empty ids", func(t *testing.T) {
		svc := NewChatService(newFakeChatRepo(), newFakeMessageRepo(), newFakeUserRepo(), logger)
		if _, err := svc.GetOrCreateChat(ctx, "", "u2"); !errors.Is(err, repo.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestListChats(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("resolves peer profiles and slot-correct unread", func(t *testing.T) {
		chats := newFakeChatRepo()
		users := newFakeUserRepo()
		svc := NewChatService(chats, newFakeMessageRepo(), users, logger)

		meID := users.add(model.User{Username: "me"})
		peerID := users.add(model.User{Username: "peer", DisplayName: "Peer"})

		chat, err := chats.Insert(ctx, &model.Chat{
			ChatKey: ChatKey(meID, peerID),
			UserAID: meID, UserBID: peerID,
			LastMessage: "hello",
		})
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		// Two unread for the peer's slot, none for mine.
		mustApplyPreview(t, chats, chat.ID.Hex(), meID, peerID, "hello", 2)

		items, err := svc.ListChats(ctx, meID)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("expected 1 chat, got %d", len(items))
		}
		if items[0].OtherUser.DisplayName != "Peer" {
			t.Errorf("expected peer profile, got %q", items[0].OtherUser.DisplayName)
		}
		if items[0].UnreadCount != 0 {
			t.Errorf("sender side must read zero unread, got %d", items[0].UnreadCount)
		}

		peerItems, err := svc.ListChats(ctx, peerID)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if peerItems[0].UnreadCount != 2 {
			t.Errorf("receiver side expected 2 unread, got %d", peerItems[0].UnreadCount)
		}
	})

	t.Run("missing peer becomes unknown user", func(t *testing.T) {
		chats := newFakeChatRepo()
		users := newFakeUserRepo()
		svc := NewChatService(chats, newFakeMessageRepo(), users, logger)

		meID := users.add(model.User{Username: "me"})
		_, err := chats.Insert(ctx, &model.Chat{
			ChatKey: ChatKey(meID, "gone"),
			UserAID: meID, UserBID: "gone",
		})
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		items, err := svc.ListChats(ctx, meID)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if items[0].OtherUser.DisplayName != "Unknown user" {
			t.Errorf("expected placeholder profile, got %q", items[0].OtherUser.DisplayName)
		}
		if items[0].OtherUser.ID != "gone" {
			t.Errorf("placeholder must keep the peer id, got %q", items[0].OtherUser.ID)
		}
	})

	t.Run("empty list for user with no chats", func(t *testing.T) {
		svc := NewChatService(newFakeChatRepo(), newFakeMessageRepo(), newFakeUserRepo(), logger)
		items, err := svc.ListChats(ctx, "nobody")
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if items == nil || len(items) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", items)
		}
	})
}

func TestTotalUnread(t *testing.T) {
	ctx := context.Background()
	chats := newFakeChatRepo()
	svc := NewChatService(chats, newFakeMessageRepo(), newFakeUserRepo(), zap.NewNop())

	c1, _ := chats.Insert(ctx, &model.Chat{ChatKey: ChatKey("me", "p1"), UserAID: "me", UserBID: "p1"})
	c2, _ := chats.Insert(ctx, &model.Chat{ChatKey: ChatKey("me", "p2"), UserAID: "p2", UserBID: "me"})
	mustApplyPreview(t, chats, c1.ID.Hex(), "p1", "me", "a", 3)
	mustApplyPreview(t, chats, c2.ID.Hex(), "p2", "me", "b", 2)

	total, err := svc.TotalUnread(ctx, "me")
	if err != nil {
		t.Fatalf("total unread failed: %v", err)
	}
	if total != 5 {
		t.Errorf("expected 5 unread across chats, got %d", total)
	}
}

func mustApplyPreview(t *testing.T, chats *fakeChatRepo, chatID, senderID, receiverID, content string, times int) *model.Chat {
	t.Helper()
	for i := 0; i < times; i++ {
		if err := chats.ApplyMessagePreview(context.Background(), chatID, senderID, receiverID, content, time.Now().UTC()); err != nil {
			t.Fatalf("preview update failed: %v", err)
		}
	}
	chat, err := chats.FindByID(context.Background(), chatID)
	if err != nil {
		t.Fatalf("chat lookup failed: %v", err)
	}
	return chat
}
