package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Blackmarket-coa/harvest-reserve/internal/clock"
	"github.com/Blackmarket-coa/harvest-reserve/internal/domain"
)

type ExpiredLister interface {
	ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error)
}

type ExpiredReleaser interface {
	ReleaseExpired(ctx context.Context, reservationID string) (domain.Reservation, error)
}

type StatusRefresher interface {
	RefreshStatus(ctx context.Context, batchID string) error
}

const (
	defaultReapInterval = 60 * time.Second
	defaultReapPageSize = 500
)

// Reaper reclaims capacity from holds nobody converted. Expiry is
// data-driven (each hold carries expires_at), so the sweep simply re-scans
// persisted state; there is no per-hold timer to lose across restarts.
type Reaper struct {
	lister    ExpiredLister
	releaser  ExpiredReleaser
	refresher StatusRefresher
	clock     clock.Clock
	logger    *log.Logger
	interval  time.Duration
	pageSize  int
}

type ReaperOption func(*Reaper)

func WithReapInterval(d time.Duration) ReaperOption {
	return func(r *Reaper) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithReapPageSize(n int) ReaperOption {
	return func(r *Reaper) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

func WithReapLogger(l *log.Logger) ReaperOption {
	return func(r *Reaper) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewReaper(lister ExpiredLister, releaser ExpiredReleaser, refresher StatusRefresher, clk clock.Clock, opts ...ReaperOption) *Reaper {
	r := &Reaper{
		lister:    lister,
		releaser:  releaser,
		refresher: refresher,
		clock:     clk,
		logger:    log.Default(),
		interval:  defaultReapInterval,
		pageSize:  defaultReapPageSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sweeps on a fixed interval until the context is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep processes one page of expired holds. Each candidate goes through the
// same idempotent release path as a manual cancellation, so a conversion
// racing in between the query and the release is observed as already
// resolved and skipped. One bad row never aborts the cycle; it stays
// active-but-expired and is retried next sweep.
func (r *Reaper) Sweep(ctx context.Context) int {
	now := r.clock.Now()
	expired, err := r.lister.ListExpired(ctx, now, r.pageSize)
	if err != nil {
		r.logger.Printf("reaper: list expired holds: %v", err)
		return 0
	}
	if len(expired) == 0 {
		return 0
	}

	released := 0
	touched := make(map[string]struct{})
	for _, res := range expired {
		if ctx.Err() != nil {
			break
		}
		if _, err := r.releaser.ReleaseExpired(ctx, res.ID); err != nil {
			if errors.Is(err, domain.ErrAlreadyResolved) {
				// Converted or cancelled since the query ran.
				continue
			}
			r.logger.Printf("reaper: release hold %s: %v", res.ID, err)
			continue
		}
		released++
		touched[res.BatchID] = struct{}{}
	}

	for batchID := range touched {
		if err := r.refresher.RefreshStatus(ctx, batchID); err != nil {
			r.logger.Printf("reaper: refresh status for batch %s: %v", batchID, err)
		}
	}

	if released > 0 {
		r.logger.Printf("reaper: released %d expired holds across %d batches", released, len(touched))
	}
	return released
}
