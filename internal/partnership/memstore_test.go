package partnership

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/deviljitu1/forever-flame-companion/internal/events"
	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory Store with failure injection.
type memStore struct {
	mu           sync.Mutex
	profiles     map[uuid.UUID]*models.Profile
	partnerships map[uuid.UUID]*models.Partnership
	order        []uuid.UUID

	candidatesErr error
	listErr       error
	// setFailures counts remaining SetPartner failures per user.
	setFailures map[uuid.UUID]int
	setCalls    int
}

func newMemStore() *memStore {
	return &memStore{
		profiles:     make(map[uuid.UUID]*models.Profile),
		partnerships: make(map[uuid.UUID]*models.Partnership),
		setFailures:  make(map[uuid.UUID]int),
	}
}

func (m *memStore) addProfile(t *testing.T, userID uuid.UUID, name string) *models.Profile {
	t.Helper()
	p := &models.Profile{UserID: userID, DisplayName: name}
	require.NoError(t, p.BeforeCreate(nil))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = p
	return p
}

func (m *memStore) addPartnership(t *testing.T, user1, user2 uuid.UUID, status string) *models.Partnership {
	t.Helper()
	p := &models.Partnership{User1ID: user1, User2ID: user2, Status: status}
	require.NoError(t, p.BeforeCreate(nil))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(p)
	return p
}

func (m *memStore) insert(p *models.Partnership) {
	cp := *p
	m.partnerships[p.ID] = &cp
	m.order = append(m.order, p.ID)
}

// acceptedElsewhere reports whether a or b holds an accepted partnership
// other than except. Callers hold mu.
func (m *memStore) acceptedElsewhere(a, b, except uuid.UUID) bool {
	for id, p := range m.partnerships {
		if id != except && p.Status == models.PartnershipAccepted && (p.Involves(a) || p.Involves(b)) {
			return true
		}
	}
	return false
}

func (m *memStore) link(userID, partnerID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := partnerID
	m.profiles[userID].PartnerID = &id
}

func (m *memStore) partnerOf(userID uuid.UUID) *uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[userID].PartnerID
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.partnerships)
}

func (m *memStore) EnsureProfile(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	p := &models.Profile{UserID: userID}
	_ = p.BeforeCreate(nil)
	m.profiles[userID] = p
	cp := *p
	return &cp, nil
}

func (m *memStore) InviteCandidates(_ context.Context, exclude uuid.UUID, code string) ([]models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.candidatesErr != nil {
		return nil, m.candidatesErr
	}
	var out []models.Profile
	for _, p := range m.profiles {
		if p.UserID != exclude && p.InviteCode == code {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) ProfilesByUserIDs(_ context.Context, userIDs []uuid.UUID) ([]models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Profile{}
	for _, id := range userIDs {
		if p, ok := m.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) LinkedProfiles(context.Context) ([]models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Profile
	for _, p := range m.profiles {
		if p.PartnerID != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) SetPartner(_ context.Context, userID, partnerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setFailures[userID] > 0 {
		m.setFailures[userID]--
		return errStoreDown
	}
	p, ok := m.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	id := partnerID
	p.PartnerID = &id
	return nil
}

func (m *memStore) ClearPartner(_ context.Context, userID, partnerID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok && p.LinkedTo(partnerID) {
		p.PartnerID = nil
	}
	return nil
}

func (m *memStore) FindPartnership(_ context.Context, id uuid.UUID) (*models.Partnership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partnerships[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) FindPartnershipBetween(_ context.Context, a, b uuid.UUID) (*models.Partnership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.partnerships {
		if (p.User1ID == a && p.User2ID == b) || (p.User1ID == b && p.User2ID == a) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) ListPartnerships(_ context.Context, userID uuid.UUID) ([]models.Partnership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Partnership
	for i := len(m.order) - 1; i >= 0; i-- {
		p, ok := m.partnerships[m.order[i]]
		if ok && p.Involves(userID) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) AcceptedPartnerships(context.Context) ([]models.Partnership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Partnership
	for _, id := range m.order {
		if p, ok := m.partnerships[id]; ok && p.Status == models.PartnershipAccepted {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) CreatePartnership(_ context.Context, p *models.Partnership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := p.BeforeCreate(nil); err != nil {
		return err
	}
	for _, existing := range m.partnerships {
		if existing.PairKey == p.PairKey {
			return ErrAlreadyPartnered
		}
	}
	if p.Status == models.PartnershipAccepted && m.acceptedElsewhere(p.User1ID, p.User2ID, uuid.Nil) {
		return ErrAlreadyPartnered
	}
	m.insert(p)
	return nil
}

func (m *memStore) AcceptPartnership(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partnerships[id]
	if !ok || p.Status != models.PartnershipPending {
		return ErrNotPending
	}
	if m.acceptedElsewhere(p.User1ID, p.User2ID, id) {
		return ErrAlreadyPartnered
	}
	p.Status = models.PartnershipAccepted
	return nil
}

func (m *memStore) DeletePartnership(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.partnerships[id]; !ok {
		return ErrNotFound
	}
	delete(m.partnerships, id)
	return nil
}

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Publish(_ context.Context, event string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// slowCreate widens the window between the service's partner checks and the
// insert.
type slowCreate struct {
	Store
	delay time.Duration
}

func (s slowCreate) CreatePartnership(ctx context.Context, p *models.Partnership) error {
	time.Sleep(s.delay)
	return s.Store.CreatePartnership(ctx, p)
}

var _ events.Publisher = (*recorder)(nil)
var _ Store = (*memStore)(nil)
var _ Store = (*GormStore)(nil)
