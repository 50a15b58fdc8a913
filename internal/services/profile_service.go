package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/deviljitu1/forever-flame-companion/internal/dto"
	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/deviljitu1/forever-flame-companion/internal/settings"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxDisplayName = 100

var (
	ErrDisplayNameTooLong = errors.New("display name must be at most 100 characters")
	ErrInvalidAvatarURL   = errors.New("avatar url must be an absolute http(s) url")
)

// ContentRejectedError carries the content filter's reason.
type ContentRejectedError struct {
	Reason string
}

func (e *ContentRejectedError) Error() string {
	return RejectionMessage(e.Reason)
}

// ProfileEnsurer loads a user's profile, creating it on first access.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type ProfileService struct {
	db       *gorm.DB
	profiles ProfileEnsurer
	filter   *ContentFilter
}

func NewProfileService(db *gorm.DB, profiles ProfileEnsurer, filter *ContentFilter) *ProfileService {
	return &ProfileService{db: db, profiles: profiles, filter: filter}
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return s.profiles.EnsureProfile(ctx, userID)
}

// Update applies the non-nil fields of req.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*models.Profile, error) {
	profile, err := s.profiles.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		name, err := s.validateDisplayName(*req.DisplayName)
		if err != nil {
			return nil, err
		}
		updates["display_name"] = name
	}
	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		if avatar == "" {
			updates["avatar_url"] = nil
		} else {
			u, err := url.Parse(avatar)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, ErrInvalidAvatarURL
			}
			updates["avatar_url"] = avatar
		}
	}
	if len(updates) == 0 {
		return profile, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.profiles.EnsureProfile(ctx, userID)
}

// GetSettings decodes the stored blob over the defaults. The profile's
// display name wins over the copy inside the blob.
func (s *ProfileService) GetSettings(ctx context.Context, userID uuid.UUID) (settings.Settings, error) {
	profile, err := s.profiles.EnsureProfile(ctx, userID)
	if err != nil {
		return settings.Settings{}, err
	}
	st, err := settings.Decode(profile.Settings)
	if err != nil {
		return st, err
	}
	if profile.DisplayName != "" {
		st.DisplayName = profile.DisplayName
	}
	return st, nil
}

// SaveSettings stores the whole settings struct and mirrors its display name
// onto the profile.
func (s *ProfileService) SaveSettings(ctx context.Context, userID uuid.UUID, st settings.Settings) (settings.Settings, error) {
	name, err := s.validateDisplayName(st.DisplayName)
	if err != nil {
		return settings.Settings{}, err
	}
	st.DisplayName = name

	if _, err := s.profiles.EnsureProfile(ctx, userID); err != nil {
		return settings.Settings{}, err
	}
	raw, err := settings.Encode(st)
	if err != nil {
		return settings.Settings{}, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"settings":     raw,
			"display_name": st.DisplayName,
		}).Error; err != nil {
		return settings.Settings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	return st, nil
}

func (s *ProfileService) validateDisplayName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if utf8.RuneCountInString(name) > maxDisplayName {
		return "", ErrDisplayNameTooLong
	}
	if reason := s.filter.Check(name); reason != "" {
		return "", &ContentRejectedError{Reason: reason}
	}
	return name, nil
}
