package partnership

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deviljitu1/forever-flame-companion/internal/events"
	"github.com/deviljitu1/forever-flame-companion/internal/invite"
	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *memStore
	svc     *Service
	events  *recorder
	metrics *Metrics

	alice, bob, carol uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   newMemStore(),
		events:  &recorder{},
		metrics: NewMetrics(prometheus.NewRegistry()),
		alice:   uuid.New(),
		bob:     uuid.New(),
		carol:   uuid.New(),
	}
	f.store.addProfile(t, f.alice, "Alice")
	f.store.addProfile(t, f.bob, "Bob")
	f.store.addProfile(t, f.carol, "Carol")
	f.svc = NewService(f.store, Options{
		RelinkAttempts:        3,
		RelinkInitialInterval: time.Millisecond,
		Publisher:             f.events,
		Metrics:               f.metrics,
	})
	return f
}

func TestJoinLinksBothProfiles(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Join(context.Background(), f.bob, f.svc.InviteCode(f.alice))
	require.NoError(t, err)

	assert.Equal(t, f.alice, p.User1ID)
	assert.Equal(t, f.bob, p.User2ID)
	assert.Equal(t, models.PartnershipAccepted, p.Status)
	require.NotNil(t, f.store.partnerOf(f.alice))
	require.NotNil(t, f.store.partnerOf(f.bob))
	assert.Equal(t, f.bob, *f.store.partnerOf(f.alice))
	assert.Equal(t, f.alice, *f.store.partnerOf(f.bob))
	assert.Equal(t, []string{events.PartnershipLinked}, f.events.names())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.operations.WithLabelValues("join", "ok")))
}

func TestJoinWithPrefixCode(t *testing.T) {
	f := newFixture(t)
	alice := uuid.MustParse("11111111-aaaa-4aaa-8aaa-aaaaaaaaaaaa")
	f.store.addProfile(t, alice, "Alice")
	require.Equal(t, "11111111", f.svc.InviteCode(alice))

	_, err := f.svc.Join(context.Background(), f.bob, "1111AAAA")
	require.ErrorIs(t, err, ErrNoSuchInviter, "letters from later id groups are not part of the code")

	p, err := f.svc.Join(context.Background(), f.bob, "1111-1111")
	require.NoError(t, err)
	assert.Equal(t, alice, p.User1ID)
	assert.Equal(t, f.bob, p.User2ID)
	assert.Equal(t, models.PartnershipAccepted, p.Status)
	assert.Equal(t, f.bob, *f.store.partnerOf(alice))
	assert.Equal(t, alice, *f.store.partnerOf(f.bob))
}

func TestInviteMakesCodeRedeemable(t *testing.T) {
	f := newFixture(t)
	dave := uuid.New()

	code, err := f.svc.Invite(context.Background(), dave)
	require.NoError(t, err)
	assert.Equal(t, invite.Encode(dave), code)

	p, err := f.svc.Join(context.Background(), f.bob, code)
	require.NoError(t, err)
	assert.Equal(t, dave, p.User1ID)
}

func TestJoinAcceptsLooseFormatting(t *testing.T) {
	f := newFixture(t)
	code := f.svc.InviteCode(f.alice)

	_, err := f.svc.Join(context.Background(), f.bob, " "+strings.ToLower(code[:4])+"-"+code[4:]+" ")
	require.NoError(t, err)
}

func TestJoinOwnCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Join(context.Background(), f.alice, f.svc.InviteCode(f.alice))
	require.ErrorIs(t, err, ErrNoSuchInviter)
	assert.Zero(t, f.store.count())
}

func TestJoinInvalidInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		caller uuid.UUID
		code   string
	}{
		{"empty code", f.bob, ""},
		{"short code", f.bob, "ABC"},
		{"symbols", f.bob, "ABCD!234"},
		{"no caller", uuid.Nil, f.svc.InviteCode(f.alice)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Join(context.Background(), tt.caller, tt.code)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Zero(t, f.store.count())
}

func TestJoinUnknownCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Join(context.Background(), f.bob, "ZZZZZZZZ")
	require.ErrorIs(t, err, ErrNoSuchInviter)
}

func TestJoinDuplicateEitherDirection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Join(ctx, f.bob, f.svc.InviteCode(f.alice))
	require.NoError(t, err)

	_, err = f.svc.Join(ctx, f.bob, f.svc.InviteCode(f.alice))
	require.ErrorIs(t, err, ErrAlreadyPartnered)

	_, err = f.svc.Join(ctx, f.alice, f.svc.InviteCode(f.bob))
	require.ErrorIs(t, err, ErrAlreadyPartnered)

	assert.Equal(t, 1, f.store.count())
}

func TestJoinDuplicatePendingRecord(t *testing.T) {
	f := newFixture(t)
	f.store.addPartnership(t, f.bob, f.alice, models.PartnershipPending)

	_, err := f.svc.Join(context.Background(), f.bob, f.svc.InviteCode(f.alice))
	require.ErrorIs(t, err, ErrAlreadyPartnered)
	assert.Nil(t, f.store.partnerOf(f.bob))
}

func TestJoinInviterPartneredElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Join(ctx, f.bob, f.svc.InviteCode(f.alice))
	require.NoError(t, err)

	_, err = f.svc.Join(ctx, f.carol, f.svc.InviteCode(f.alice))
	require.ErrorIs(t, err, ErrAlreadyPartnered)
	assert.Nil(t, f.store.partnerOf(f.carol))
	assert.Equal(t, f.bob, *f.store.partnerOf(f.alice))
}

func TestConcurrentJoinsOnOneInviter(t *testing.T) {
	f := newFixture(t)
	svc := NewService(slowCreate{Store: f.store, delay: 20 * time.Millisecond}, Options{
		RelinkAttempts:        1,
		RelinkInitialInterval: time.Millisecond,
	})
	code := svc.InviteCode(f.alice)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, caller := range []uuid.UUID{f.bob, f.carol} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Join(context.Background(), caller, code)
		}()
	}
	wg.Wait()

	var joined, refused int
	for _, err := range errs {
		switch {
		case err == nil:
			joined++
		case errors.Is(err, ErrAlreadyPartnered):
			refused++
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}
	assert.Equal(t, 1, joined)
	assert.Equal(t, 1, refused)

	accepted, err := f.store.AcceptedPartnerships(context.Background())
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, accepted[0].User2ID, *f.store.partnerOf(f.alice))
}

func TestJoinAmbiguousCode(t *testing.T) {
	f := newFixture(t)
	first := uuid.MustParse("abcdef12-0000-4000-8000-000000000000")
	second := uuid.MustParse("abcdef12-1111-4111-8111-111111111111")
	f.store.addProfile(t, first, "First")
	f.store.addProfile(t, second, "Second")
	require.Equal(t, invite.Encode(first), invite.Encode(second))

	_, err := f.svc.Join(context.Background(), f.bob, "ABCDEF12")
	require.ErrorIs(t, err, ErrAmbiguousCode)
	assert.Zero(t, f.store.count())
	assert.Nil(t, f.store.partnerOf(f.bob))
}

func TestJoinLookupFailure(t *testing.T) {
	f := newFixture(t)
	f.store.candidatesErr = errStoreDown

	_, err := f.svc.Join(context.Background(), f.bob, f.svc.InviteCode(f.alice))
	require.ErrorIs(t, err, ErrLookupFailure)
	assert.Zero(t, f.store.count())
}

func TestJoinRetriesTransientLinkFailure(t *testing.T) {
	f := newFixture(t)
	f.store.setFailures[f.alice] = 2

	_, err := f.svc.Join(context.Background(), f.bob, f.svc.InviteCode(f.alice))
	require.NoError(t, err)
	assert.Equal(t, f.bob, *f.store.partnerOf(f.alice))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.relinkRetries))
}

func TestJoinPartialLink(t *testing.T) {
	f := newFixture(t)
	f.store.setFailures[f.alice] = 100

	p, err := f.svc.Join(context.Background(), f.bob, f.svc.InviteCode(f.alice))
	require.ErrorIs(t, err, ErrPartialLink)
	require.NotNil(t, p)
	assert.Equal(t, 1, f.store.count())
	assert.Nil(t, f.store.partnerOf(f.alice))
	assert.Equal(t, f.alice, *f.store.partnerOf(f.bob))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.partialLinks))

	f.store.setFailures[f.alice] = 0
	report, err := NewReconciler(f.store, 2, nil, nil).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Linked: 1}, report)
	assert.Equal(t, f.bob, *f.store.partnerOf(f.alice))
}

func TestJoinRelinkSurvivesCancelledRequest(t *testing.T) {
	f := newFixture(t)
	f.store.setFailures[f.alice] = 1
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, err := f.svc.Join(ctx, f.bob, f.svc.InviteCode(f.alice))
	require.NoError(t, err)
	assert.Equal(t, f.bob, *f.store.partnerOf(p.User1ID))
}

func TestAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.store.addPartnership(t, f.alice, f.bob, models.PartnershipPending)

	_, err := f.svc.Accept(ctx, f.alice, pending.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.svc.Accept(ctx, f.carol, pending.ID)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.svc.Accept(ctx, f.bob, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	p, err := f.svc.Accept(ctx, f.bob, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipAccepted, p.Status)
	assert.Equal(t, f.bob, *f.store.partnerOf(f.alice))
	assert.Equal(t, f.alice, *f.store.partnerOf(f.bob))

	_, err = f.svc.Accept(ctx, f.bob, pending.ID)
	require.ErrorIs(t, err, ErrNotPending)
	assert.Equal(t, []string{events.PartnershipAccepted}, f.events.names())
}

func TestAcceptWhilePartneredElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Join(ctx, f.bob, f.svc.InviteCode(f.alice))
	require.NoError(t, err)
	pending := f.store.addPartnership(t, f.carol, f.bob, models.PartnershipPending)

	_, err = f.svc.Accept(ctx, f.bob, pending.ID)
	require.ErrorIs(t, err, ErrAlreadyPartnered)
	assert.Equal(t, f.alice, *f.store.partnerOf(f.bob))
}

func TestEndClearsBothProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Join(ctx, f.bob, f.svc.InviteCode(f.alice))
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.End(ctx, f.carol, p.ID), ErrNotFound)
	require.ErrorIs(t, f.svc.End(ctx, f.alice, uuid.New()), ErrNotFound)

	require.NoError(t, f.svc.End(ctx, f.alice, p.ID))
	assert.Zero(t, f.store.count())
	assert.Nil(t, f.store.partnerOf(f.alice))
	assert.Nil(t, f.store.partnerOf(f.bob))

	_, err = f.svc.Join(ctx, f.alice, f.svc.InviteCode(f.bob))
	require.NoError(t, err)
}

func TestDeclineKeepsUnrelatedPartner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Join(ctx, f.bob, f.svc.InviteCode(f.alice))
	require.NoError(t, err)
	pending := f.store.addPartnership(t, f.carol, f.alice, models.PartnershipPending)

	require.NoError(t, f.svc.Decline(ctx, f.alice, pending.ID))
	assert.Equal(t, 1, f.store.count())
	assert.Equal(t, f.bob, *f.store.partnerOf(f.alice))
	assert.Nil(t, f.store.partnerOf(f.carol))
}

func TestDeclineAcceptedPartnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.svc.Join(ctx, f.bob, f.svc.InviteCode(f.alice))
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.Decline(ctx, f.bob, p.ID), ErrNotPending)
	assert.Equal(t, 1, f.store.count())
}

func TestOverviewFromService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Join(ctx, f.bob, f.svc.InviteCode(f.alice))
	require.NoError(t, err)
	f.store.addPartnership(t, f.carol, f.alice, models.PartnershipPending)

	ov, err := f.svc.Overview(ctx, f.alice)
	require.NoError(t, err)
	require.NotNil(t, ov.Active)
	assert.Equal(t, f.bob, ov.Active.PartnerID)
	assert.Equal(t, "Bob", ov.Active.Partner.DisplayName)
	assert.False(t, ov.Active.IsInvitee)
	require.Len(t, ov.Pending, 1)
	assert.Equal(t, f.carol, ov.Pending[0].PartnerID)
	assert.True(t, ov.Pending[0].IsInvitee)

	f.store.listErr = errStoreDown
	_, err = f.svc.Overview(ctx, f.alice)
	require.ErrorIs(t, err, ErrLookupFailure)
}
