package service

import (
	"context"
	"fmt"
	"io"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/storage"

	"go.uber.org/zap"
)

const avatarFolder = "uploads"

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdatePhoto(ctx context.Context, userID string, file io.Reader) (string, error)
	UpdateAbout(ctx context.Context, userID, about string) error
	UpdateDisplayName(ctx context.Context, userID, displayName string) error
	UpdateLocation(ctx context.Context, userID string, latitude, longitude float64) error
	AddPushToken(ctx context.Context, userID, token string) error
	Block(ctx context.Context, userID, targetID string) error
	Unblock(ctx context.Context, userID, targetID string) error
	// Contacts lists the ids of everyone the user has exchanged messages with.
	Contacts(ctx context.Context, userID string) ([]string, error)
}

type userService struct {
	users    repo.UserRepository
	messages repo.MessageRepository
	uploader storage.Uploader
	logger   *zap.Logger
}

func NewUserService(users repo.UserRepository, messages repo.MessageRepository, uploader storage.Uploader, logger *zap.Logger) UserService {
	return &userService{
		users:    users,
		messages: messages,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := model.ProfileOf(user)
	return &profile, nil
}

// UpdatePhoto uploads the avatar binary to object storage and stores the
// returned public URL on the user.
func (s *userService) UpdatePhoto(ctx context.Context, userID string, file io.Reader) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("%w: no object storage configured", repo.ErrValidation)
	}

	url, err := s.uploader.Upload(ctx, file, avatarFolder)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	if err := s.users.SetPhotoURL(ctx, userID, url); err != nil {
		return "", err
	}
	s.logger.Debug("avatar updated", zap.String("user_id", userID))
	return url, nil
}

func (s *userService) UpdateAbout(ctx context.Context, userID, about string) error {
	return s.users.SetAbout(ctx, userID, about)
}

func (s *userService) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	if displayName == "" {
		return fmt.Errorf("%w: display name is required", repo.ErrValidation)
	}
	return s.users.SetDisplayName(ctx, userID, displayName)
}

func (s *userService) UpdateLocation(ctx context.Context, userID string, latitude, longitude float64) error {
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return fmt.Errorf("%w: coordinates out of range", repo.ErrValidation)
	}
	return s.users.SetLocation(ctx, userID, latitude, longitude)
}

func (s *userService) AddPushToken(ctx context.Context, userID, token string) error {
	if token == "" {
		return fmt.Errorf("%w: push token is required", repo.ErrValidation)
	}
	return s.users.AddPushToken(ctx, userID, token)
}

func (s *userService) Block(ctx context.Context, userID, targetID string) error {
	if targetID == "" {
		return fmt.Errorf("%w: target user id is required", repo.ErrValidation)
	}
	if userID == targetID {
		return fmt.Errorf("%w: cannot block yourself", repo.ErrValidation)
	}
	return s.users.Block(ctx, userID, targetID)
}

func (s *userService) Unblock(ctx context.Context, userID, targetID string) error {
	if targetID == "" {
		return fmt.Errorf("%w: target user id is required", repo.ErrValidation)
	}
	return s.users.Unblock(ctx, userID, targetID)
}

func (s *userService) Contacts(ctx context.Context, userID string) ([]string, error) {
	return s.messages.DistinctPeers(ctx, userID)
}
