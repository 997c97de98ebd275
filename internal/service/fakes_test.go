package service

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/event"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"
)

// In-memory doubles for the repository interfaces. They reproduce the
// contract the Mongo-backed implementations expose, including duplicate-key
// behavior on the chat key and slot-conditional counter updates.

type fakeChatRepo struct {
	mu    sync.Mutex
	byID  map[string]*model.Chat
	byKey map[string]*model.Chat

	// when set, the next Insert fails with this error once
	nextInsertErr error
	// when set, every ApplyMessagePreview fails with this error
	previewErr error
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		byID:  make(map[string]*model.Chat),
		byKey: make(map[string]*model.Chat),
	}
}

func (f *fakeChatRepo) Insert(_ context.Context, chat *model.Chat) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextInsertErr != nil {
		err := f.nextInsertErr
		f.nextInsertErr = nil
		return nil, err
	}
	if _, exists := f.byKey[chat.ChatKey]; exists {
		return nil, repo.ErrDuplicateKey
	}
	stored := *chat
	stored.ID = primitive.NewObjectID()
	f.byID[stored.ID.Hex()] = &stored
	f.byKey[stored.ChatKey] = &stored
	out := stored
	return &out, nil
}

func (f *fakeChatRepo) FindByKey(_ context.Context, chatKey string) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if chat, ok := f.byKey[chatKey]; ok {
		out := *chat
		return &out, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeChatRepo) FindByID(_ context.Context, chatID string) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if chat, ok := f.byID[chatID]; ok {
		out := *chat
		return &out, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeChatRepo) ListForUser(_ context.Context, userID string) ([]model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var chats []model.Chat
	for _, chat := range f.byID {
		if chat.UserAID == userID || chat.UserBID == userID {
			chats = append(chats, *chat)
		}
	}
	return chats, nil
}

func (f *fakeChatRepo) ApplyMessagePreview(_ context.Context, chatID, senderID, receiverID, content string, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.previewErr != nil {
		return f.previewErr
	}
	chat, ok := f.byID[chatID]
	if !ok {
		return repo.ErrNotFound
	}
	switch receiverID {
	case chat.UserAID:
		chat.UnreadCountA++
	case chat.UserBID:
		chat.UnreadCountB++
	default:
		return repo.ErrNotFound
	}
	chat.LastMessage = content
	chat.LastMessageTime = sentAt
	chat.LastMessageSenderID = senderID
	return nil
}

func (f *fakeChatRepo) ResetUnread(_ context.Context, chatID, readerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.byID[chatID]
	if !ok {
		return repo.ErrNotFound
	}
	switch readerID {
	case chat.UserAID:
		chat.UnreadCountA = 0
	case chat.UserBID:
		chat.UnreadCountB = 0
	}
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []model.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (f *fakeMessageRepo) Insert(_ context.Context, msg *model.Message) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *msg
	stored.ID = primitive.NewObjectID()
	f.messages = append(f.messages, stored)
	out := stored
	return &out, nil
}

func (f *fakeMessageRepo) ListRecent(_ context.Context, chatID string, limit int64) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var hits []model.Message
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].ChatID.Hex() == chatID {
			hits = append(hits, f.messages[i])
			if int64(len(hits)) == limit {
				break
			}
		}
	}
	return hits, nil
}

func (f *fakeMessageRepo) Latest(_ context.Context, chatID string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].ChatID.Hex() == chatID {
			out := f.messages[i]
			return &out, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeMessageRepo) MarkRead(_ context.Context, chatID, readerID string, readAt time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var transitioned int64
	for i := range f.messages {
		m := &f.messages[i]
		if m.ChatID.Hex() != chatID || m.ReceiverID != readerID || m.Status == model.StatusRead {
			continue
		}
		m.Status = model.StatusRead
		at := readAt
		m.ReadAt = &at
		transitioned++
	}
	return transitioned, nil
}

func (f *fakeMessageRepo) DistinctPeers(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]struct{})
	var peers []string
	for i := range f.messages {
		m := &f.messages[i]
		var peer string
		switch userID {
		case m.SenderID:
			peer = m.ReceiverID
		case m.ReceiverID:
			peer = m.SenderID
		default:
			continue
		}
		if _, dup := seen[peer]; !dup {
			seen[peer] = struct{}{}
			peers = append(peers, peer)
		}
	}
	return peers, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) add(user model.User) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	f.users[user.ID.Hex()] = &user
	return user.ID.Hex()
}

func (f *fakeUserRepo) Insert(_ context.Context, user *model.User) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return nil, repo.ErrDuplicateKey
		}
	}
	stored := *user
	stored.ID = primitive.NewObjectID()
	f.users[stored.ID.Hex()] = &stored
	out := stored
	return &out, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, userID string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[userID]; ok {
		out := *user
		return &out, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUserRepo) FindByIDs(_ context.Context, userIDs []string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, id := range userIDs {
		if user, ok := f.users[id]; ok {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUserRepo) SetPresence(_ context.Context, userID string, online bool, lastSeen *time.Time, connectionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	user.IsOnline = online
	if lastSeen != nil {
		user.LastSeen = lastSeen
	}
	if online {
		for _, id := range user.ConnectionIDs {
			if id == connectionID {
				return nil
			}
		}
		user.ConnectionIDs = append(user.ConnectionIDs, connectionID)
	} else {
		kept := user.ConnectionIDs[:0]
		for _, id := range user.ConnectionIDs {
			if id != connectionID {
				kept = append(kept, id)
			}
		}
		user.ConnectionIDs = kept
	}
	return nil
}

func (f *fakeUserRepo) setField(userID string, set func(*model.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	set(user)
	return nil
}

func (f *fakeUserRepo) SetPhotoURL(_ context.Context, userID, photoURL string) error {
	return f.setField(userID, func(u *model.User) { u.PhotoURL = photoURL })
}

func (f *fakeUserRepo) SetAbout(_ context.Context, userID, about string) error {
	return f.setField(userID, func(u *model.User) { u.About = about })
}

func (f *fakeUserRepo) SetDisplayName(_ context.Context, userID, displayName string) error {
	return f.setField(userID, func(u *model.User) { u.DisplayName = displayName })
}

func (f *fakeUserRepo) SetLocation(_ context.Context, userID string, latitude, longitude float64) error {
	return f.setField(userID, func(u *model.User) {
		u.Location = &model.GeoPoint{Latitude: &latitude, Longitude: &longitude}
	})
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func (f *fakeUserRepo) AddPushToken(_ context.Context, userID, token string) error {
	return f.setField(userID, func(u *model.User) { u.PushTokens = appendUnique(u.PushTokens, token) })
}

func (f *fakeUserRepo) AddContact(_ context.Context, userID, contactID string) error {
	return f.setField(userID, func(u *model.User) { u.Contacts = appendUnique(u.Contacts, contactID) })
}

func (f *fakeUserRepo) Block(_ context.Context, userID, targetID string) error {
	return f.setField(userID, func(u *model.User) { u.BlockedUsers = appendUnique(u.BlockedUsers, targetID) })
}

func (f *fakeUserRepo) Unblock(_ context.Context, userID, targetID string) error {
	return f.setField(userID, func(u *model.User) {
		kept := u.BlockedUsers[:0]
		for _, id := range u.BlockedUsers {
			if id != targetID {
				kept = append(kept, id)
			}
		}
		u.BlockedUsers = kept
	})
}

func (f *fakeUserRepo) ListWithLocation(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, user := range f.users {
		if user.Location != nil {
			out = append(out, *user)
		}
	}
	return out, nil
}

// recordingNotifier captures fan-out for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	userPush map[string][]event.WsEvent
	connPush map[string][]event.WsEvent
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		userPush: make(map[string][]event.WsEvent),
		connPush: make(map[string][]event.WsEvent),
	}
}

func (n *recordingNotifier) PushToUser(userID string, ev event.WsEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.userPush[userID] = append(n.userPush[userID], ev)
}

func (n *recordingNotifier) PushToConnection(connectionID string, ev event.WsEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.connPush[connectionID] = append(n.connPush[connectionID], ev)
}

func (n *recordingNotifier) eventsFor(userID string) []event.WsEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]event.WsEvent(nil), n.userPush[userID]...)
}

func (n *recordingNotifier) eventNamesFor(userID string) []string {
	events := n.eventsFor(userID)
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Event)
	}
	return names
}

// recordingReconciler captures dirty-chat flags.
type recordingReconciler struct {
	mu    sync.Mutex
	dirty []string
}

func (r *recordingReconciler) MarkDirty(chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = append(r.dirty, chatID)
}
