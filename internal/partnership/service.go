// Package partnership pairs two users into one mutually-referencing
// partnership through an invite code.
package partnership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/deviljitu1/forever-flame-companion/internal/events"
	"github.com/deviljitu1/forever-flame-companion/internal/invite"
	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/deviljitu1/forever-flame-companion/internal/partnership"

type Options struct {
	RelinkAttempts        uint
	RelinkInitialInterval time.Duration
	Publisher             events.Publisher
	Metrics               *Metrics
}

type Service struct {
	store     Store
	attempts  uint
	interval  time.Duration
	publisher events.Publisher
	metrics   *Metrics
	tracer    trace.Tracer
}

func NewService(store Store, opts Options) *Service {
	if opts.RelinkAttempts == 0 {
		opts.RelinkAttempts = 1
	}
	if opts.RelinkInitialInterval <= 0 {
		opts.RelinkInitialInterval = 200 * time.Millisecond
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	return &Service{
		store:     store,
		attempts:  opts.RelinkAttempts,
		interval:  opts.RelinkInitialInterval,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		tracer:    otel.Tracer(tracerName),
	}
}

// InviteCode returns the caller's shareable code.
func (s *Service) InviteCode(userID uuid.UUID) string {
	return invite.Encode(userID)
}

// Invite returns the caller's code after making sure their profile exists,
// since only stored profiles are found when a code is redeemed.
func (s *Service) Invite(ctx context.Context, userID uuid.UUID) (string, error) {
	if _, err := s.store.EnsureProfile(ctx, userID); err != nil {
		return "", fmt.Errorf("%w: load profile: %v", ErrLookupFailure, err)
	}
	return invite.Encode(userID), nil
}

// Join redeems rawCode on behalf of caller and creates an accepted
// partnership with the code's owner. When the partnership is stored but a
// profile link could not be written, the partnership is returned together
// with an error wrapping ErrPartialLink.
func (s *Service) Join(ctx context.Context, caller uuid.UUID, rawCode string) (p *models.Partnership, err error) {
	ctx, span := s.tracer.Start(ctx, "partnership.Join", trace.WithAttributes(
		attribute.String("user_id", caller.String()),
	))
	defer func() { s.finish(span, "join", err) }()

	if caller == uuid.Nil {
		return nil, fmt.Errorf("%w: missing caller", ErrInvalidInput)
	}
	code, err := invite.Normalize(rawCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := s.store.EnsureProfile(ctx, caller); err != nil {
		return nil, fmt.Errorf("%w: load caller profile: %v", ErrLookupFailure, err)
	}

	candidates, err := s.store.InviteCandidates(ctx, caller, code)
	if err != nil {
		return nil, fmt.Errorf("%w: list candidates: %v", ErrLookupFailure, err)
	}
	inviter, err := invite.Resolve(code, candidates, profileUserID)
	switch {
	case errors.Is(err, invite.ErrNoMatch):
		return nil, ErrNoSuchInviter
	case errors.Is(err, invite.ErrAmbiguous):
		return nil, fmt.Errorf("%w: %v", ErrAmbiguousCode, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	span.SetAttributes(attribute.String("inviter_id", inviter.UserID.String()))

	if err := s.ensureUnpaired(ctx, caller, inviter.UserID); err != nil {
		return nil, err
	}

	p = &models.Partnership{
		User1ID: inviter.UserID,
		User2ID: caller,
		Status:  models.PartnershipAccepted,
	}
	if err := s.store.CreatePartnership(ctx, p); err != nil {
		if errors.Is(err, ErrAlreadyPartnered) {
			return nil, ErrAlreadyPartnered
		}
		return nil, fmt.Errorf("%w: create partnership: %v", ErrLookupFailure, err)
	}
	span.SetAttributes(attribute.String("partnership_id", p.ID.String()))

	linkErr := s.link(context.WithoutCancel(ctx), p)
	s.publish(ctx, events.PartnershipLinked, p, caller)
	return p, linkErr
}

// Accept moves a pending partnership addressed to caller into accepted and
// links both profiles.
func (s *Service) Accept(ctx context.Context, caller, id uuid.UUID) (p *models.Partnership, err error) {
	ctx, span := s.tracer.Start(ctx, "partnership.Accept", trace.WithAttributes(
		attribute.String("user_id", caller.String()),
		attribute.String("partnership_id", id.String()),
	))
	defer func() { s.finish(span, "accept", err) }()

	p, err = s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.User2ID != caller {
		return nil, ErrNotAuthorized
	}
	if p.Status != models.PartnershipPending {
		return nil, ErrNotPending
	}
	if err := s.ensureNoOtherPartner(ctx, p.User1ID, p.User2ID); err != nil {
		return nil, err
	}
	if err := s.ensureNoOtherPartner(ctx, p.User2ID, p.User1ID); err != nil {
		return nil, err
	}
	for _, user := range []uuid.UUID{p.User1ID, p.User2ID} {
		if _, err := s.store.EnsureProfile(ctx, user); err != nil {
			return nil, fmt.Errorf("%w: load profile: %v", ErrLookupFailure, err)
		}
	}

	if err := s.store.AcceptPartnership(ctx, id); err != nil {
		switch {
		case errors.Is(err, ErrNotPending):
			return nil, ErrNotPending
		case errors.Is(err, ErrAlreadyPartnered):
			return nil, ErrAlreadyPartnered
		}
		return nil, fmt.Errorf("%w: accept partnership: %v", ErrLookupFailure, err)
	}
	p.Status = models.PartnershipAccepted

	linkErr := s.link(context.WithoutCancel(ctx), p)
	s.publish(ctx, events.PartnershipAccepted, p, caller)
	return p, linkErr
}

// Decline removes a pending partnership involving caller.
func (s *Service) Decline(ctx context.Context, caller, id uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "partnership.Decline", trace.WithAttributes(
		attribute.String("user_id", caller.String()),
		attribute.String("partnership_id", id.String()),
	))
	defer func() { s.finish(span, "decline", err) }()

	p, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !p.Involves(caller) {
		return ErrNotFound
	}
	if p.Status != models.PartnershipPending {
		return ErrNotPending
	}
	return s.remove(ctx, p, caller)
}

// End removes any partnership involving caller and clears both profile
// links that still point across it.
func (s *Service) End(ctx context.Context, caller, id uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "partnership.End", trace.WithAttributes(
		attribute.String("user_id", caller.String()),
		attribute.String("partnership_id", id.String()),
	))
	defer func() { s.finish(span, "end", err) }()

	p, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !p.Involves(caller) {
		return ErrNotFound
	}
	return s.remove(ctx, p, caller)
}

// Overview fetches and classifies every partnership involving caller.
func (s *Service) Overview(ctx context.Context, caller uuid.UUID) (*Overview, error) {
	ctx, span := s.tracer.Start(ctx, "partnership.Overview", trace.WithAttributes(
		attribute.String("user_id", caller.String()),
	))
	defer span.End()

	ps, err := s.store.ListPartnerships(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("%w: list partnerships: %v", ErrLookupFailure, err)
	}

	ids := make([]uuid.UUID, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.OtherParty(caller))
	}
	profiles, err := s.store.ProfilesByUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load partner profiles: %v", ErrLookupFailure, err)
	}
	return BuildOverview(caller, ps, profiles), nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.Partnership, error) {
	p, err := s.store.FindPartnership(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: find partnership: %v", ErrLookupFailure, err)
	}
	return p, nil
}

// ensureUnpaired rejects a join when the pair already has a record in either
// direction or either side is accepted elsewhere. The store repeats the
// partner check atomically on insert.
func (s *Service) ensureUnpaired(ctx context.Context, caller, inviter uuid.UUID) error {
	_, err := s.store.FindPartnershipBetween(ctx, caller, inviter)
	if err == nil {
		return ErrAlreadyPartnered
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: check existing partnership: %v", ErrLookupFailure, err)
	}
	if err := s.ensureNoOtherPartner(ctx, caller, inviter); err != nil {
		return err
	}
	return s.ensureNoOtherPartner(ctx, inviter, caller)
}

func (s *Service) ensureNoOtherPartner(ctx context.Context, userID, except uuid.UUID) error {
	ps, err := s.store.ListPartnerships(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: list partnerships: %v", ErrLookupFailure, err)
	}
	for _, p := range ps {
		if p.Status == models.PartnershipAccepted && p.OtherParty(userID) != except {
			return fmt.Errorf("%w: %s already has a partner", ErrAlreadyPartnered, userID)
		}
	}
	return nil
}

func (s *Service) remove(ctx context.Context, p *models.Partnership, caller uuid.UUID) error {
	if err := s.store.DeletePartnership(ctx, p.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: delete partnership: %v", ErrLookupFailure, err)
	}

	unlinkErr := s.unlink(context.WithoutCancel(ctx), p)
	s.publish(ctx, events.PartnershipEnded, p, caller)
	return unlinkErr
}

// link points each profile at the other. Writes are retried; on exhaustion
// the error wraps ErrPartialLink and the reconciler finishes the pair.
func (s *Service) link(ctx context.Context, p *models.Partnership) error {
	var errs []error
	for _, pair := range [][2]uuid.UUID{{p.User1ID, p.User2ID}, {p.User2ID, p.User1ID}} {
		user, partner := pair[0], pair[1]
		err := s.retry(ctx, func() error {
			return s.store.SetPartner(ctx, user, partner)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("link %s: %w", user, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}

	err := errors.Join(errs...)
	slog.Error("partner link incomplete",
		"partnership_id", p.ID.String(),
		"action", "link",
		"error", err.Error(),
	)
	return fmt.Errorf("%w: %w", ErrPartialLink, err)
}

func (s *Service) unlink(ctx context.Context, p *models.Partnership) error {
	var errs []error
	for _, pair := range [][2]uuid.UUID{{p.User1ID, p.User2ID}, {p.User2ID, p.User1ID}} {
		user, partner := pair[0], pair[1]
		err := s.retry(ctx, func() error {
			return s.store.ClearPartner(ctx, user, partner)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("unlink %s: %w", user, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}

	err := errors.Join(errs...)
	slog.Error("partner unlink incomplete",
		"partnership_id", p.ID.String(),
		"action", "unlink",
		"error", err.Error(),
	)
	return fmt.Errorf("%w: %w", ErrPartialLink, err)
}

func (s *Service) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.interval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op()
		if errors.Is(err, ErrNotFound) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.metrics.retried()
			slog.Warn("retrying profile write", "error", err.Error(), "next", next)
		}),
	)
	return err
}

func (s *Service) publish(ctx context.Context, event string, p *models.Partnership, actor uuid.UUID) {
	payload := events.Partnership{
		PartnershipID: p.ID,
		User1ID:       p.User1ID,
		User2ID:       p.User2ID,
		Status:        p.Status,
		ActorID:       actor,
		At:            time.Now().UTC(),
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		slog.Warn("event publish failed",
			"partnership_id", p.ID.String(),
			"action", event,
			"error", err.Error(),
		)
	}
}

func (s *Service) finish(span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome(err))
	}
	span.End()
	s.metrics.observe(op, err)
}

func profileUserID(p models.Profile) uuid.UUID { return p.UserID }
