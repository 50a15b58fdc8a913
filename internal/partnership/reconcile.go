package partnership

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/deviljitu1/forever-flame-companion/internal/events"
	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	repairLink  = "link"
	repairClear = "clear"
)

// Report summarizes one reconcile pass.
type Report struct {
	Linked  int `json:"linked"`
	Cleared int `json:"cleared"`
	Failed  int `json:"failed"`

	// Conflicts counts accepted partnerships ignored because one of their
	// users already holds an older accepted partnership.
	Conflicts int `json:"conflicts"`
}

type repair struct {
	kind      string
	userID    uuid.UUID
	partnerID uuid.UUID
}

// Reconciler repairs profile links that drifted from the partnerships table:
// accepted pairs that are not mutually linked, and partner_id values with no
// accepted partnership behind them.
type Reconciler struct {
	store     Store
	workers   int
	metrics   *Metrics
	publisher events.Publisher
}

func NewReconciler(store Store, workers int, metrics *Metrics, publisher events.Publisher) *Reconciler {
	if workers < 1 {
		workers = 1
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Reconciler{store: store, workers: workers, metrics: metrics, publisher: publisher}
}

// RunOnce scans once and applies repairs concurrently. Individual repair
// failures are counted in the report; only scan failures are returned.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	repairs, conflicts, err := r.plan(ctx)
	if err != nil {
		return Report{}, err
	}

	var linked, cleared, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, rp := range repairs {
		g.Go(func() error {
			var err error
			switch rp.kind {
			case repairLink:
				err = r.store.SetPartner(gctx, rp.userID, rp.partnerID)
			case repairClear:
				err = r.store.ClearPartner(gctx, rp.userID, rp.partnerID)
			}
			r.metrics.repaired(rp.kind, err)
			if err != nil {
				failed.Add(1)
				slog.Error("partner repair failed",
					"user_id", rp.userID.String(),
					"action", "reconcile_"+rp.kind,
					"error", err.Error(),
				)
				return nil
			}

			if rp.kind == repairLink {
				linked.Add(1)
			} else {
				cleared.Add(1)
			}
			r.announce(gctx, rp)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Linked:    int(linked.Load()),
		Cleared:   int(cleared.Load()),
		Failed:    int(failed.Load()),
		Conflicts: conflicts,
	}
	if len(repairs) > 0 || conflicts > 0 {
		slog.Info("reconcile pass complete",
			"linked", report.Linked,
			"cleared", report.Cleared,
			"failed", report.Failed,
			"conflicts", report.Conflicts,
		)
	}
	return report, nil
}

// plan lists the repairs for one pass. When a user appears in more than one
// accepted partnership only the oldest counts; the rest are logged and
// reported as conflicts, so no user ever gets two link repairs.
func (r *Reconciler) plan(ctx context.Context) ([]repair, int, error) {
	accepted, err := r.store.AcceptedPartnerships(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list accepted partnerships: %v", ErrLookupFailure, err)
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].CreatedAt.Before(accepted[j].CreatedAt)
	})

	claimed := make(map[uuid.UUID]bool, 2*len(accepted))
	kept := make([]models.Partnership, 0, len(accepted))
	for _, p := range accepted {
		if claimed[p.User1ID] || claimed[p.User2ID] {
			slog.Warn("conflicting accepted partnership",
				"partnership_id", p.ID.String(),
				"action", "reconcile",
			)
			continue
		}
		claimed[p.User1ID], claimed[p.User2ID] = true, true
		kept = append(kept, p)
	}
	conflicts := len(accepted) - len(kept)

	ids := make([]uuid.UUID, 0, 2*len(kept))
	backed := make(map[string]bool, len(kept))
	for _, p := range kept {
		ids = append(ids, p.User1ID, p.User2ID)
		backed[models.PairKey(p.User1ID, p.User2ID)] = true
	}
	profiles, err := r.store.ProfilesByUserIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: load partnered profiles: %v", ErrLookupFailure, err)
	}
	byUser := make(map[uuid.UUID]models.Profile, len(profiles))
	for _, prof := range profiles {
		byUser[prof.UserID] = prof
	}

	var repairs []repair
	relinking := make(map[uuid.UUID]bool)
	for _, p := range kept {
		for _, pair := range [][2]uuid.UUID{{p.User1ID, p.User2ID}, {p.User2ID, p.User1ID}} {
			user, partner := pair[0], pair[1]
			prof, ok := byUser[user]
			if !ok || prof.LinkedTo(partner) {
				continue
			}
			relinking[user] = true
			repairs = append(repairs, repair{kind: repairLink, userID: user, partnerID: partner})
		}
	}

	linked, err := r.store.LinkedProfiles(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list linked profiles: %v", ErrLookupFailure, err)
	}
	for _, prof := range linked {
		if prof.PartnerID == nil || relinking[prof.UserID] {
			continue
		}
		if backed[models.PairKey(prof.UserID, *prof.PartnerID)] {
			continue
		}
		repairs = append(repairs, repair{kind: repairClear, userID: prof.UserID, partnerID: *prof.PartnerID})
	}
	return repairs, conflicts, nil
}

func (r *Reconciler) announce(ctx context.Context, rp repair) {
	err := r.publisher.Publish(ctx, events.PartnershipRepaired, events.Repair{
		UserID:    rp.userID,
		PartnerID: rp.partnerID,
		Kind:      rp.kind,
		At:        time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("event publish failed", "action", events.PartnershipRepaired, "error", err.Error())
	}
}

// Start runs RunOnce every interval until ctx is cancelled. The returned
// channel is closed once the loop has exited; a non-positive interval never
// starts the loop.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) <-chan struct{} {
	stopped := make(chan struct{})
	if interval <= 0 {
		slog.Error("reconcile loop disabled", "action", "reconcile", "interval", interval)
		close(stopped)
		return stopped
	}
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
					slog.Error("reconcile pass failed", "action", "reconcile", "error", err.Error())
				}
			}
		}
	}()
	return stopped
}
