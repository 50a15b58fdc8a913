package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	PartnershipLinked   = "partnership.linked"
	PartnershipAccepted = "partnership.accepted"
	PartnershipEnded    = "partnership.ended"
	PartnershipRepaired = "partnership.repaired"
	MoodLogged          = "mood.logged"
)

type Partnership struct {
	PartnershipID uuid.UUID `json:"partnership_id"`
	User1ID       uuid.UUID `json:"user1_id"`
	User2ID       uuid.UUID `json:"user2_id"`
	Status        string    `json:"status"`
	ActorID       uuid.UUID `json:"actor_id,omitempty"`
	At            time.Time `json:"at"`
}

type Repair struct {
	UserID    uuid.UUID `json:"user_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	Kind      string    `json:"kind"`
	At        time.Time `json:"at"`
}

type Mood struct {
	EntryID   uuid.UUID  `json:"entry_id"`
	UserID    uuid.UUID  `json:"user_id"`
	PartnerID *uuid.UUID `json:"partner_id,omitempty"`
	MoodType  string     `json:"mood_type"`
	At        time.Time  `json:"at"`
}
