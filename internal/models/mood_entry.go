package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Mood types offered by the check-in widget, with their display labels.
var Moods = map[string]string{
	"in_love": "In Love",
	"happy":   "Happy",
	"neutral": "Neutral",
	"sad":     "Sad",
	"upset":   "Upset",
}

type MoodEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	MoodType  string    `gorm:"size:20;not null" json:"mood_type"`
	MoodLabel string    `gorm:"size:50;not null" json:"mood_label"`
	Note      string    `gorm:"size:500" json:"note,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (MoodEntry) TableName() string {
	return "mood_entries"
}

func (m *MoodEntry) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
