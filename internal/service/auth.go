package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bayt-al-hikmah/taskgate/internal/models"
	"github.com/bayt-al-hikmah/taskgate/internal/token"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrValidation         = errors.New("validation failed")
	ErrUserNotFound       = errors.New("user not found")
)

// UserStore is the persistence boundary the auth service needs.
// Satisfied by repository.UserRepository; tests plug in fakes.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// TokenPair is what a successful login hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthService struct {
	users UserStore
	codec *token.Codec
}

func NewAuthService(users UserStore, codec *token.Codec) *AuthService {
	return &AuthService{users: users, codec: codec}
}

// Creates a new user account
func (s *AuthService) Register(ctx context.Context, username, email, password, avatarPath string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		AvatarPath:   avatarPath,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticates a user and issues an access/refresh pair. Wrong email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.codec.Issue(user.ID, user.Email, token.KindAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.codec.Issue(user.ID, user.Email, token.KindRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Exchanges a live refresh credential for a fresh access credential.
func (s *AuthService) Refresh(refreshToken string) (string, error) {
	return s.codec.Refresh(refreshToken)
}

// Retrieves a user's profile
func (s *AuthService) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Applies partial profile changes; empty fields are left untouched
func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, username, email string) (*models.User, error) {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	if username = strings.TrimSpace(username); username != "" {
		user.Username = username
	}
	if email = strings.TrimSpace(email); email != "" {
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
		}
		user.Email = email
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Re-hashes and stores a new password
func (s *AuthService) UpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	user, err := s.Profile(ctx, id)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	return s.users.Update(ctx, user)
}
