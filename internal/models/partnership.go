package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PartnershipPending  = "pending"
	PartnershipAccepted = "accepted"
)

// Partnership pairs two users. User1 is always the inviter (the code owner),
// User2 the invitee. PairKey is unique per unordered pair of users.
type Partnership struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	User1ID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user1_id"`
	User2ID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user2_id"`
	Status    string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	PairKey   string    `gorm:"size:73;not null;uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Partnership) TableName() string {
	return "partnerships"
}

func (p *Partnership) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.PairKey = PairKey(p.User1ID, p.User2ID)
	return nil
}

// Involves reports whether userID is either party.
func (p *Partnership) Involves(userID uuid.UUID) bool {
	return p.User1ID == userID || p.User2ID == userID
}

// OtherParty returns the id of the party that is not me.
func (p *Partnership) OtherParty(me uuid.UUID) uuid.UUID {
	if p.User1ID == me {
		return p.User2ID
	}
	return p.User1ID
}

// PairKey normalizes an unordered pair of users.
func PairKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if y < x {
		x, y = y, x
	}
	return x + ":" + y
}
