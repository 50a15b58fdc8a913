package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/deviljitu1/forever-flame-companion/internal/hints"
	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxChatMessage   = 2000
	chatContextMoods = 3
)

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrMessageTooLong = errors.New("message must be at most 2000 characters")
)

type Coach interface {
	Chat(ctx context.Context, req hints.ChatRequest) hints.Reply
}

// CoachService answers relationship questions with the asker's partner and
// recent moods as context.
type CoachService struct {
	db       *gorm.DB
	profiles ProfileEnsurer
	coach    Coach
}

func NewCoachService(db *gorm.DB, profiles ProfileEnsurer, coach Coach) *CoachService {
	return &CoachService{db: db, profiles: profiles, coach: coach}
}

func (s *CoachService) Ask(ctx context.Context, userID uuid.UUID, message string) (*hints.Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > maxChatMessage {
		return nil, ErrMessageTooLong
	}

	me, err := s.profiles.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	req := hints.ChatRequest{Message: message}
	if me.PartnerID != nil {
		req.HasPartner = true
		var partner models.Profile
		err := s.db.WithContext(ctx).Where("user_id = ?", *me.PartnerID).First(&partner).Error
		switch {
		case err == nil:
			req.PartnerName = partner.DisplayName
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to load partner: %w", err)
		}

		var labels []string
		if err := s.db.WithContext(ctx).Model(&models.MoodEntry{}).
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(chatContextMoods).
			Pluck("mood_label", &labels).Error; err != nil {
			return nil, fmt.Errorf("failed to load recent moods: %w", err)
		}
		req.RecentMoods = labels
	}

	reply := s.coach.Chat(ctx, req)
	return &reply, nil
}
