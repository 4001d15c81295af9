package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"liber/internal/models"
	"liber/internal/observability"
	"liber/internal/realtime"
	"liber/internal/repository"
	"liber/internal/wallet"
)

// LoginInput is a wallet-based login or first-time registration.
type LoginInput struct {
	WalletAddress string
	Username      string
}

// UpdateProfileInput carries the editable profile fields. Nil pointers
// leave the field unchanged.
type UpdateProfileInput struct {
	Username    *string
	DisplayName *string
	Bio         *string
	Avatar      *string
	Banner      *string
	Location    *string
	Website     *string
}

// UserService handles identity, profiles and the follow graph.
type UserService struct {
	users         repository.UserRepository
	follows       repository.FollowRepository
	notifications repository.NotificationRepository
	notifier      *realtime.Notifier
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	notifications repository.NotificationRepository,
	notifier *realtime.Notifier,
) *UserService {
	return &UserService{
		users:         users,
		follows:       follows,
		notifications: notifications,
		notifier:      notifier,
	}
}

// Login resolves a wallet address to a user, creating the account on
// first sight. The address is normalized to its EIP-55 form so casing
// variants map to one identity.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*models.User, bool, error) {
	address, err := wallet.Normalize(input.WalletAddress)
	if err != nil {
		return nil, false, models.NewValidationError(fmt.Sprintf("invalid wallet address: %v", err))
	}

	user, err := s.users.GetByWallet(ctx, address)
	if err == nil {
		if touchErr := s.users.TouchLastActive(ctx, user.ID); touchErr != nil {
			slog.Warn("last-active touch failed", "user_id", user.ID, "error", touchErr)
		}
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, models.NewInternalError(err)
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		// Derive a stable default from the address.
		username = "user_" + strings.ToLower(address[2:10])
	}
	if err := validateUsername(username); err != nil {
		return nil, false, err
	}

	user = &models.User{
		WalletAddress: address,
		Username:      username,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, models.NewInternalError(err)
	}
	return user, true, nil
}

// Get returns a user profile by ID.
func (s *UserService) Get(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("user", userID)
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// GetByUsername returns a user profile by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("user", username)
		}
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// UpdateProfile applies the provided profile changes.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		user.Username = username
	}
	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Bio != nil {
		if len(*input.Bio) > 500 {
			return nil, models.NewValidationError("bio exceeds 500 characters")
		}
		user.Bio = *input.Bio
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}
	if input.Banner != nil {
		user.Banner = *input.Banner
	}
	if input.Location != nil {
		user.Location = strings.TrimSpace(*input.Location)
	}
	if input.Website != nil {
		user.Website = strings.TrimSpace(*input.Website)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// Follow adds a follow edge and notifies the followee. Following
// yourself or following twice are rejected and a no-op respectively.
func (s *UserService) Follow(ctx context.Context, followerID, followeeID uint) error {
	if followerID == followeeID {
		return models.NewValidationError("cannot follow yourself")
	}
	if _, err := s.Get(ctx, followeeID); err != nil {
		return err
	}

	already, err := s.follows.IsFollowing(ctx, followerID, followeeID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.follows.Follow(ctx, followerID, followeeID); err != nil {
		return models.NewInternalError(err)
	}

	// Only a state change produces a notification; re-following is silent.
	if !already {
		s.notifyFollow(ctx, followerID, followeeID)
	}
	return nil
}

// Unfollow removes a follow edge.
func (s *UserService) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	if err := s.follows.Unfollow(ctx, followerID, followeeID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Followers lists users following userID.
func (s *UserService) Followers(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	users, err := s.follows.Followers(ctx, userID, clampLimit(limit), offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Following lists users userID follows.
func (s *UserService) Following(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	users, err := s.follows.Following(ctx, userID, clampLimit(limit), offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (s *UserService) notifyFollow(ctx context.Context, followerID, followeeID uint) {
	n := &models.Notification{
		UserID:     followeeID,
		Kind:       models.NotificationFollow,
		FromUserID: followerID,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		observability.SecondaryUpdateFailures.WithLabelValues("notification").Inc()
		slog.Warn("follow notification persist failed",
			"followee_id", followeeID, "error", err)
		return
	}
	if s.notifier != nil {
		s.notifier.NotifyUser(ctx, followeeID, realtime.Event{
			Type:    realtime.EventNotification,
			Payload: n,
		})
	}
}

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 30 {
		return models.NewValidationError("username must be 3-30 characters")
	}
	for _, ch := range username {
		ok := ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
		if !ok {
			return models.NewValidationError("username may only contain letters, digits and underscores")
		}
	}
	return nil
}
