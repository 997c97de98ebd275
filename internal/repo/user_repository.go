package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/db"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type UserRepository interface {
	Insert(ctx context.Context, user *model.User) (*model.User, error)
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByIDs(ctx context.Context, userIDs []string) ([]model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// SetPresence adds or removes one connection id and flips the derived
	// online flag. lastSeen is only written when going offline.
	SetPresence(ctx context.Context, userID string, online bool, lastSeen *time.Time, connectionID string) error
	SetPhotoURL(ctx context.Context, userID, photoURL string) error
	SetAbout(ctx context.Context, userID, about string) error
	SetDisplayName(ctx context.Context, userID, displayName string) error
	SetLocation(ctx context.Context, userID string, latitude, longitude float64) error
	AddPushToken(ctx context.Context, userID, token string) error
	AddContact(ctx context.Context, userID, contactID string) error
	Block(ctx context.Context, userID, targetID string) error
	Unblock(ctx context.Context, userID, targetID string) error
	// ListWithLocation returns every user with a recorded location.
	ListWithLocation(ctx context.Context) ([]model.User, error)
}

type userRepository struct {
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

func NewUserRepository(mongoRepo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

func (r *userRepository) Insert(ctx context.Context, user *model.User) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.mongoRepo.Create(ctx, *user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		r.logger.Error("failed to insert user", zap.String("email", user.Email), zap.Error(err))
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return user, nil
}

func (r *userRepository) FindByID(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		if _, hexErr := primitive.ObjectIDFromHex(userID); hexErr != nil {
			return nil, ErrInvalidID
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// FindByIDs batch-loads users in one $in query. Invalid ids are skipped so
// one stale reference cannot fail the whole batch.
func (r *userRepository) FindByIDs(ctx context.Context, userIDs []string) ([]model.User, error) {
	objectIDs := make([]primitive.ObjectID, 0, len(userIDs))
	for _, id := range userIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objectIDs = append(objectIDs, oid)
	}
	if len(objectIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	users, err := r.mongoRepo.FindAll(ctx, db.NewFilter().In("_id", objectIDs).Build())
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	return users, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("email", email).Build())
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (r *userRepository) SetPresence(ctx context.Context, userID string, online bool, lastSeen *time.Time, connectionID string) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	set := bson.M{"is_online": online}
	if lastSeen != nil {
		set["last_seen"] = *lastSeen
	}

	update := bson.M{"$set": set}
	if online {
		update["$addToSet"] = bson.M{"connection_ids": connectionID}
	} else {
		update["$pull"] = bson.M{"connection_ids": connectionID}
	}

	_, err = r.mongoRepo.Collection().UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		r.logger.Error("failed to update presence",
			zap.String("user_id", userID),
			zap.Bool("online", online),
			zap.Error(err),
		)
		return fmt.Errorf("set presence: %w", err)
	}
	return nil
}

func (r *userRepository) SetPhotoURL(ctx context.Context, userID, photoURL string) error {
	return r.setField(ctx, userID, "photo_url", photoURL)
}

func (r *userRepository) SetAbout(ctx context.Context, userID, about string) error {
	return r.setField(ctx, userID, "about", about)
}

func (r *userRepository) SetDisplayName(ctx context.Context, userID, displayName string) error {
	return r.setField(ctx, userID, "display_name", displayName)
}

func (r *userRepository) SetLocation(ctx context.Context, userID string, latitude, longitude float64) error {
	return r.setField(ctx, userID, "location", model.GeoPoint{Latitude: &latitude, Longitude: &longitude})
}

func (r *userRepository) AddPushToken(ctx context.Context, userID, token string) error {
	return r.addToSet(ctx, userID, "push_tokens", token)
}

func (r *userRepository) AddContact(ctx context.Context, userID, contactID string) error {
	return r.addToSet(ctx, userID, "contacts", contactID)
}

func (r *userRepository) Block(ctx context.Context, userID, targetID string) error {
	return r.addToSet(ctx, userID, "blocked_users", targetID)
}

func (r *userRepository) Unblock(ctx context.Context, userID, targetID string) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err = r.mongoRepo.Collection().UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$pull": bson.M{"blocked_users": targetID}},
	)
	if err != nil {
		return fmt.Errorf("unblock user: %w", err)
	}
	return nil
}

func (r *userRepository) ListWithLocation(ctx context.Context) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	// $ne null also excludes documents missing the field entirely.
	filter := db.NewFilter().Ne("location", nil).Build()

	users, err := r.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list located users: %w", err)
	}
	return users, nil
}

func (r *userRepository) setField(ctx context.Context, userID, field string, value interface{}) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.mongoRepo.Update(ctx, bson.M{"_id": objectID}, bson.M{field: value})
	if err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) addToSet(ctx context.Context, userID, field, value string) error {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.mongoRepo.Collection().UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$addToSet": bson.M{field: value}},
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
