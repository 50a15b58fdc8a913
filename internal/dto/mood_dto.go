package dto

import (
	"github.com/deviljitu1/forever-flame-companion/internal/hints"
	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/google/uuid"
)

type LogMoodRequest struct {
	MoodType string `json:"mood_type"`
	Note     string `json:"note"`
}

type PartnerMoodResponse struct {
	PartnerID   uuid.UUID        `json:"partner_id"`
	PartnerName string           `json:"partner_name"`
	Mood        models.MoodEntry `json:"mood"`
	Hint        *hints.Hint      `json:"hint,omitempty"`
}

type ChatRequest struct {
	Message string `json:"message"`
}
