package models

import (
	"time"

	"github.com/deviljitu1/forever-flame-companion/internal/invite"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Profile is the per-user record. PartnerID is a plain back-reference
// mirrored on the partner's profile once a partnership is accepted.
type Profile struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	DisplayName string         `gorm:"size:100" json:"display_name"`
	AvatarURL   *string        `gorm:"type:text" json:"avatar_url,omitempty"`
	PartnerID   *uuid.UUID     `gorm:"type:uuid;index" json:"partner_id"`
	InviteCode  string         `gorm:"size:8;not null;index" json:"-"`
	Settings    datatypes.JSON `gorm:"type:jsonb" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// BeforeCreate assigns the primary key and caches the derived invite code.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.InviteCode = invite.Encode(p.UserID)
	return nil
}

// LinkedTo reports whether the profile currently points at partnerID.
func (p *Profile) LinkedTo(partnerID uuid.UUID) bool {
	return p.PartnerID != nil && *p.PartnerID == partnerID
}
