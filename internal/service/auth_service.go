package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/model"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/repo"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	// ParseToken validates a signed token and returns the user id it
	// carries. The core trusts this identity on every request.
	ParseToken(tokenString string) (string, error)
}

type authService struct {
	users    repo.UserRepository
	jwtKey   []byte
	tokenTTL time.Duration
}

func NewAuthService(users repo.UserRepository, jwtKey string, tokenTTL time.Duration) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &authService{
		users:    users,
		jwtKey:   []byte(jwtKey),
		tokenTTL: tokenTTL,
	}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || len(password) < 6 {
		return nil, "", fmt.Errorf("%w: username, email and a password of 6+ characters are required", repo.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Insert(ctx, &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  username,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateKey) {
			return nil, "", fmt.Errorf("%w: email already registered", repo.ErrValidation)
		}
		return nil, "", err
	}

	token, err := s.signToken(user.ID.Hex())
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.signToken(user.ID.Hex())
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}

func (s *authService) signToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
