package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"
)

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(_ context.Context, _ io.Reader, _ string) (string, error) {
	return f.url, f.err
}

func mustInsertMessage(t *testing.T, messages *fakeMessageRepo, senderID, receiverID string) {
	t.Helper()
	_, err := messages.Insert(context.Background(), &model.Message{
		ChatID:     primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    "x",
		Status:     model.StatusSent,
	})
	if err != nil {
		t.Fatalf("insert message failed: %v", err)
	}
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("photo update stores the uploaded URL", func(t *testing.T) {
		users := newFakeUserRepo()
		id := users.add(model.User{Username: "alice"})
		svc := NewUserService(users, newFakeMessageRepo(), &fakeUploader{url: "https://cdn/img.png"}, logger)

		url, err := svc.UpdatePhoto(ctx, id, strings.NewReader("bytes"))
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if url != "https://cdn/img.png" {
			t.Errorf("unexpected url %q", url)
		}

		user, err := users.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if user.PhotoURL != "https://cdn/img.png" {
			t.Errorf("photo url not persisted, got %q", user.PhotoURL)
		}
	})

	t.Run("photo update without storage", func(t *testing.T) {
		users := newFakeUserRepo()
		id := users.add(model.User{Username: "alice"})
		svc := NewUserService(users, newFakeMessageRepo(), nil, logger)

		if _, err := svc.UpdatePhoto(ctx, id, strings.NewReader("bytes")); !errors.Is(err, repo.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("location bounds", func(t *testing.T) {
		users := newFakeUserRepo()
		id := users.add(model.User{Username: "alice"})
		svc := NewUserService(users, newFakeMessageRepo(), nil, logger)

		if err := svc.UpdateLocation(ctx, id, 91, 0); !errors.Is(err, repo.ErrValidation) {
			t.Errorf("latitude 91 must be rejected, got %v", err)
		}
		if err := svc.UpdateLocation(ctx, id, 0, -181); !errors.Is(err, repo.ErrValidation) {
			t.Errorf("longitude -181 must be rejected, got %v", err)
		}
		if err := svc.UpdateLocation(ctx, id, 52.52, 13.405); err != nil {
			t.Errorf("valid coordinates rejected: %v", err)
		}

		user, _ := users.FindByID(ctx, id)
		if !user.Location.HasCoordinates() {
			t.Error("location not persisted")
		}
	})

	t.Run("self block rejected", func(t *testing.T) {
		users := newFakeUserRepo()
		id := users.add(model.User{Username: "alice"})
		svc := NewUserService(users, newFakeMessageRepo(), nil, logger)

		if err := svc.Block(ctx, id, id); !errors.Is(err, repo.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("block and unblock", func(t *testing.T) {
		users := newFakeUserRepo()
		id := users.add(model.User{Username: "alice"})
		svc := NewUserService(users, newFakeMessageRepo(), nil, logger)

		if err := svc.Block(ctx, id, "troll"); err != nil {
			t.Fatalf("block failed: %v", err)
		}
		user, _ := users.FindByID(ctx, id)
		if len(user.BlockedUsers) != 1 || user.BlockedUsers[0] != "troll" {
			t.Errorf("expected [troll], got %v", user.BlockedUsers)
		}

		if err := svc.Unblock(ctx, id, "troll"); err != nil {
			t.Fatalf("unblock failed: %v", err)
		}
		user, _ = users.FindByID(ctx, id)
		if len(user.BlockedUsers) != 0 {
			t.Errorf("expected empty block list, got %v", user.BlockedUsers)
		}
	})

	t.Run("contacts come from message history", func(t *testing.T) {
		users := newFakeUserRepo()
		messages := newFakeMessageRepo()
		svc := NewUserService(users, messages, nil, logger)

		mustInsertMessage(t, messages, "me", "p1")
		mustInsertMessage(t, messages, "p2", "me")
		mustInsertMessage(t, messages, "me", "p1")

		contacts, err := svc.Contacts(ctx, "me")
		if err != nil {
			t.Fatalf("contacts failed: %v", err)
		}
		if len(contacts) != 2 {
			t.Errorf("expected 2 distinct peers, got %v", contacts)
		}
	})
}
