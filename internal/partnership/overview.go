package partnership

import (
	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/google/uuid"
)

// Entry is one partnership seen from the caller's side.
type Entry struct {
	Partnership models.Partnership `json:"partnership"`
	PartnerID   uuid.UUID          `json:"partner_id"`
	Partner     *models.Profile    `json:"partner"`
	IsInvitee   bool               `json:"is_invitee"`
}

type Overview struct {
	Active  *Entry  `json:"active"`
	Pending []Entry `json:"pending"`
}

// BuildOverview classifies partnerships for me. Active is the first accepted
// record in input order; every pending record is listed. A partner profile
// missing from profiles leaves Partner nil.
func BuildOverview(me uuid.UUID, partnerships []models.Partnership, profiles []models.Profile) *Overview {
	byUser := make(map[uuid.UUID]*models.Profile, len(profiles))
	for i := range profiles {
		byUser[profiles[i].UserID] = &profiles[i]
	}

	out := &Overview{Pending: []Entry{}}
	for _, p := range partnerships {
		partnerID := p.OtherParty(me)
		entry := Entry{
			Partnership: p,
			PartnerID:   partnerID,
			Partner:     byUser[partnerID],
			IsInvitee:   p.User2ID == me,
		}
		switch p.Status {
		case models.PartnershipAccepted:
			if out.Active == nil {
				out.Active = &entry
			}
		case models.PartnershipPending:
			out.Pending = append(out.Pending, entry)
		}
	}
	return out
}
