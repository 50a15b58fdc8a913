package partnership

import (
	"context"

	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/google/uuid"
)

// Store is the datastore contract over the profiles and partnerships tables.
// Point lookups report a missing row as ErrNotFound.
type Store interface {
	// EnsureProfile returns the profile for userID, creating an empty one
	// on first use.
	EnsureProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	// InviteCandidates enumerates profiles other than exclude that may own
	// code. Implementations may narrow the set by the cached invite_code
	// column; callers still verify each candidate.
	InviteCandidates(ctx context.Context, exclude uuid.UUID, code string) ([]models.Profile, error)
	ProfilesByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]models.Profile, error)
	LinkedProfiles(ctx context.Context) ([]models.Profile, error)
	// SetPartner points userID's profile at partnerID.
	SetPartner(ctx context.Context, userID, partnerID uuid.UUID) error
	// ClearPartner nulls userID's partner only while it still points at partnerID.
	ClearPartner(ctx context.Context, userID, partnerID uuid.UUID) error

	FindPartnership(ctx context.Context, id uuid.UUID) (*models.Partnership, error)
	// FindPartnershipBetween matches the pair in either stored direction.
	FindPartnershipBetween(ctx context.Context, a, b uuid.UUID) (*models.Partnership, error)
	// ListPartnerships returns every record where user1 or user2 is userID,
	// newest first.
	ListPartnerships(ctx context.Context, userID uuid.UUID) ([]models.Partnership, error)
	AcceptedPartnerships(ctx context.Context) ([]models.Partnership, error)
	// CreatePartnership reports a duplicate unordered pair as ErrAlreadyPartnered.
	// An accepted record is also refused with ErrAlreadyPartnered when either
	// user already holds another accepted partnership; the check and the
	// insert are atomic.
	CreatePartnership(ctx context.Context, p *models.Partnership) error
	// AcceptPartnership moves a pending record to accepted, or returns
	// ErrNotPending. It applies the same atomic one-partner rule as
	// CreatePartnership.
	AcceptPartnership(ctx context.Context, id uuid.UUID) error
	DeletePartnership(ctx context.Context, id uuid.UUID) error
}
