package service

import (
	"context"

	"nutribunda/internal/models"
	"nutribunda/internal/repository"
)

// UserProfile is the account card returned by the profile endpoints.
type UserProfile struct {
	ID     uint    `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Avatar string  `json:"avatar"`
	Role   *string `json:"role"`
}

// UpdateProfileInput carries the editable profile fields. Nil means
// "leave unchanged".
type UpdateProfileInput struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

// UserService reads and edits account profiles.
type UserService struct {
	users repository.UserRepository
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetProfile returns the caller's account card.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profileFrom(user), nil
}

// UpdateProfile applies the provided fields and returns the updated card.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input UpdateProfileInput) (*UserProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		user.Name = *input.Name
		fields["name"] = *input.Name
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
		fields["avatar"] = *input.Avatar
	}
	if len(fields) > 0 {
		if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return profileFrom(user), nil
}

// UpdateAvatar replaces the avatar URL. The URL is required; clearing an
// avatar goes through UpdateProfile with an empty string instead.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, avatarURL string) error {
	if avatarURL == "" {
		return models.NewInvalidInputError("Avatar URL is required")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.users.UpdateProfile(ctx, userID, map[string]any{"avatar": avatarURL})
}

func profileFrom(user *models.User) *UserProfile {
	profile := &UserProfile{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Avatar: user.Avatar,
	}
	if user.Role != nil {
		name := user.Role.Name
		profile.Role = &name
	}
	return profile
}
