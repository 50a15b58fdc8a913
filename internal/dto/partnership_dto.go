package dto

import (
	"github.com/deviljitu1/forever-flame-companion/internal/models"
)

type JoinPartnershipRequest struct {
	Code string `json:"code"`
}

type InviteResponse struct {
	Code string `json:"code"`
	Link string `json:"link"`
}

// PartnershipResponse wraps a partnership. Warning is set when the record
// was stored but the profile links are still being repaired.
type PartnershipResponse struct {
	Partnership *models.Partnership `json:"partnership"`
	Warning     string              `json:"warning,omitempty"`
}
