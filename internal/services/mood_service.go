package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/deviljitu1/forever-flame-companion/internal/dto"
	"github.com/deviljitu1/forever-flame-companion/internal/events"
	"github.com/deviljitu1/forever-flame-companion/internal/hints"
	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/deviljitu1/forever-flame-companion/internal/settings"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxNoteLength    = 500
	defaultMoodLimit = 20
	maxMoodLimit     = 100
)

var (
	ErrInvalidMood   = errors.New("mood_type must be one of in_love, happy, neutral, sad, upset")
	ErrNoteTooLong   = errors.New("note must be at most 500 characters")
	ErrNoPartner     = errors.New("you are not linked with a partner")
	ErrNoPartnerMood = errors.New("your partner has not logged a mood yet")
	ErrMoodNotShared = errors.New("your partner does not share moods")
)

type Hinter interface {
	Hint(ctx context.Context, req hints.Request) hints.Hint
}

type MoodService struct {
	db        *gorm.DB
	profiles  ProfileEnsurer
	hinter    Hinter
	publisher events.Publisher
}

func NewMoodService(db *gorm.DB, profiles ProfileEnsurer, hinter Hinter, publisher events.Publisher) *MoodService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &MoodService{db: db, profiles: profiles, hinter: hinter, publisher: publisher}
}

func (s *MoodService) Log(ctx context.Context, userID uuid.UUID, req *dto.LogMoodRequest) (*models.MoodEntry, error) {
	label, ok := models.Moods[req.MoodType]
	if !ok {
		return nil, ErrInvalidMood
	}
	note := strings.TrimSpace(req.Note)
	if utf8.RuneCountInString(note) > maxNoteLength {
		return nil, ErrNoteTooLong
	}

	profile, err := s.profiles.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := models.MoodEntry{
		UserID:    userID,
		MoodType:  req.MoodType,
		MoodLabel: label,
		Note:      note,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to log mood: %w", err)
	}

	err = s.publisher.Publish(context.WithoutCancel(ctx), events.MoodLogged, events.Mood{
		EntryID:   entry.ID,
		UserID:    userID,
		PartnerID: profile.PartnerID,
		MoodType:  entry.MoodType,
		At:        entry.CreatedAt,
	})
	if err != nil {
		slog.Warn("event publish failed", "user_id", userID.String(), "action", events.MoodLogged, "error", err.Error())
	}
	return &entry, nil
}

func (s *MoodService) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.MoodEntry, error) {
	if limit <= 0 {
		limit = defaultMoodLimit
	}
	if limit > maxMoodLimit {
		limit = maxMoodLimit
	}
	var entries []models.MoodEntry
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list moods: %w", err)
	}
	return entries, nil
}

// PartnerMood returns the partner's latest mood and, when the caller has
// consolation tips enabled, a suggestion for how to respond.
func (s *MoodService) PartnerMood(ctx context.Context, userID uuid.UUID) (*dto.PartnerMoodResponse, error) {
	me, err := s.profiles.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if me.PartnerID == nil {
		return nil, ErrNoPartner
	}

	var partner models.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", *me.PartnerID).First(&partner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPartner
		}
		return nil, fmt.Errorf("failed to load partner: %w", err)
	}
	partnerSettings, err := settings.Decode(partner.Settings)
	if err != nil {
		slog.Warn("partner settings unreadable, using defaults", "user_id", partner.UserID.String(), "error", err.Error())
	}
	if partnerSettings.MoodDataSharing == "private" {
		return nil, ErrMoodNotShared
	}

	recent, err := s.List(ctx, partner.UserID, 4)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, ErrNoPartnerMood
	}
	latest := recent[0]

	// Notes reach the partner only at the "full" sharing level.
	if partnerSettings.MoodSharingLevel != "full" {
		latest.Note = ""
	}
	resp := &dto.PartnerMoodResponse{
		PartnerID:   partner.UserID,
		PartnerName: partner.DisplayName,
		Mood:        latest,
	}

	mine, err := settings.Decode(me.Settings)
	if err != nil {
		slog.Warn("settings unreadable, using defaults", "user_id", userID.String(), "error", err.Error())
	}
	if !mine.ConsolationTips || s.hinter == nil {
		return resp, nil
	}

	req := hints.Request{
		PartnerName: partner.DisplayName,
		MoodType:    latest.MoodType,
		MoodLabel:   latest.MoodLabel,
		Note:        latest.Note,
	}
	for _, e := range recent[1:] {
		req.Recent = append(req.Recent, hints.Recent{MoodLabel: e.MoodLabel, At: e.CreatedAt})
	}
	hint := s.hinter.Hint(ctx, req)
	resp.Hint = &hint
	return resp, nil
}
