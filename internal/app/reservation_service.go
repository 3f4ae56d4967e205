package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Blackmarket-coa/harvest-reserve/internal/clock"
	"github.com/Blackmarket-coa/harvest-reserve/internal/domain"
	"github.com/Blackmarket-coa/harvest-reserve/internal/events"
)

// BatchStore is the reservation manager's view of batch storage. Every
// capacity mutation is an atomic primitive; the manager never reads
// quantities and writes them back.
type BatchStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Get(ctx context.Context, id string) (domain.Batch, error)
	TryReserve(ctx context.Context, id string, qty decimal.Decimal) (domain.Batch, error)
	Convert(ctx context.Context, id string, qty decimal.Decimal) (domain.Batch, error)
	Release(ctx context.Context, id string, qty decimal.Decimal) (domain.Batch, error)
	UpdateStatus(ctx context.Context, id string, status domain.BatchStatus) error
}

type ReservationStore interface {
	Create(ctx context.Context, res domain.Reservation) error
	Get(ctx context.Context, id string) (domain.Reservation, error)
	MarkConverted(ctx context.Context, id, orderRef string, now time.Time) (*domain.Reservation, error)
	MarkReleased(ctx context.Context, id string, reason domain.ReleaseReason, now time.Time) (*domain.Reservation, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error)
}

// EventPublisher receives fire-and-forget transition events after commits.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

const defaultHoldTTL = 30 * time.Minute

// ReservationService is the allocator: it creates holds against batch
// capacity, converts them into permanent sales, and releases them back.
type ReservationService struct {
	batches      BatchStore
	reservations ReservationStore
	clock        clock.Clock
	publisher    EventPublisher
	logger       *log.Logger
	holdTTL      time.Duration
}

type ReservationServiceOption func(*ReservationService)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

func WithPublisher(p EventPublisher) ReservationServiceOption {
	return func(s *ReservationService) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithLogger(l *log.Logger) ReservationServiceOption {
	return func(s *ReservationService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewReservationService(batches BatchStore, reservations ReservationStore, clk clock.Clock, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		batches:      batches,
		reservations: reservations,
		clock:        clk,
		publisher:    events.NopPublisher{},
		logger:       log.Default(),
		holdTTL:      defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReserveInput struct {
	BatchID  string
	Quantity decimal.Decimal
	Holder   domain.HolderRef
	// TTL overrides the service default when positive.
	TTL time.Duration
}

// Reserve places a hold against a batch. Capacity is checked and claimed by
// the store's atomic TryReserve; on contention the loser sees
// ErrCapacityExceeded and nothing is written.
func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) (domain.Reservation, error) {
	if in.Quantity.Sign() <= 0 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}
	if err := in.Holder.Validate(); err != nil {
		return domain.Reservation{}, err
	}

	ttl := s.holdTTL
	if in.TTL > 0 {
		ttl = in.TTL
	}

	now := s.clock.Now()
	var (
		result domain.Reservation
		batch  domain.Batch
	)

	err := s.batches.WithTx(ctx, func(txCtx context.Context) error {
		b, err := s.batches.TryReserve(txCtx, in.BatchID, in.Quantity)
		if err != nil {
			return err
		}

		res := domain.Reservation{
			ID:        uuid.NewString(),
			BatchID:   b.ID,
			Quantity:  in.Quantity,
			Holder:    in.Holder,
			Outcome:   domain.ReservationActive,
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}
		if err := s.reservations.Create(txCtx, res); err != nil {
			return err
		}

		if b.Status, err = refreshStatus(txCtx, s.batches, b, now); err != nil {
			return err
		}

		result = res
		batch = b
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.publish(ctx, events.Transition{
		Type:          events.TypeReservationCreated,
		BatchID:       batch.ID,
		ItemID:        batch.ItemID,
		ReservationID: result.ID,
		Quantity:      result.Quantity.String(),
		Remaining:     batch.Remaining().String(),
		At:            now,
	})
	return result, nil
}

// Convert turns a hold into a permanent sale. Idempotent: a repeat call with
// the order reference already recorded succeeds without touching quantities.
// A reservation that was released (expired or cancelled) reports
// ErrAlreadyResolved so order placement fails loudly; the capacity is gone.
func (s *ReservationService) Convert(ctx context.Context, reservationID, orderRef string) (domain.Reservation, error) {
	if orderRef == "" {
		return domain.Reservation{}, domain.ErrOrderReferenceRequired
	}

	now := s.clock.Now()
	var (
		result    domain.Reservation
		batch     domain.Batch
		converted bool
	)

	err := s.batches.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.reservations.MarkConverted(txCtx, reservationID, orderRef, now)
		if err != nil {
			return err
		}
		if res == nil {
			// No active row flipped: already terminal or unknown.
			existing, err := s.reservations.Get(txCtx, reservationID)
			if err != nil {
				return err
			}
			if existing.Outcome == domain.ReservationConverted && existing.OrderReference == orderRef {
				result = existing
				return nil
			}
			return domain.ErrAlreadyResolved
		}

		b, err := s.batches.Convert(txCtx, res.BatchID, res.Quantity)
		if err != nil {
			return err
		}
		if b.Status, err = refreshStatus(txCtx, s.batches, b, now); err != nil {
			return err
		}

		result = *res
		batch = b
		converted = true
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	if converted {
		s.publish(ctx, events.Transition{
			Type:          events.TypeReservationConverted,
			BatchID:       batch.ID,
			ItemID:        batch.ItemID,
			ReservationID: result.ID,
			Quantity:      result.Quantity.String(),
			Remaining:     batch.Remaining().String(),
			At:            now,
		})
	}
	return result, nil
}

// Cancel releases a hold back to its batch. Cancelling an already released
// reservation is a no-op success; cancelling a converted one reports
// ErrAlreadyResolved.
func (s *ReservationService) Cancel(ctx context.Context, reservationID string) (domain.Reservation, error) {
	return s.release(ctx, reservationID, domain.ReleaseReasonCancelled)
}

// ReleaseExpired is the reaper's entry into the same release path, recording
// the expiry reason for observability.
func (s *ReservationService) ReleaseExpired(ctx context.Context, reservationID string) (domain.Reservation, error) {
	return s.release(ctx, reservationID, domain.ReleaseReasonExpired)
}

func (s *ReservationService) release(ctx context.Context, reservationID string, reason domain.ReleaseReason) (domain.Reservation, error) {
	now := s.clock.Now()
	var (
		result   domain.Reservation
		batch    domain.Batch
		released bool
	)

	err := s.batches.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.reservations.MarkReleased(txCtx, reservationID, reason, now)
		if err != nil {
			return err
		}
		if res == nil {
			existing, err := s.reservations.Get(txCtx, reservationID)
			if err != nil {
				return err
			}
			if existing.Outcome == domain.ReservationReleased {
				result = existing
				return nil
			}
			return domain.ErrAlreadyResolved
		}

		b, err := s.batches.Release(txCtx, res.BatchID, res.Quantity)
		if err != nil {
			return err
		}
		if b.Status, err = refreshStatus(txCtx, s.batches, b, now); err != nil {
			return err
		}

		result = *res
		batch = b
		released = true
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	if released {
		s.publish(ctx, events.Transition{
			Type:           events.TypeReservationReleased,
			BatchID:        batch.ID,
			ItemID:         batch.ItemID,
			ReservationID:  result.ID,
			Quantity:       result.Quantity.String(),
			Remaining:      batch.Remaining().String(),
			ReleasedReason: string(reason),
			At:             now,
		})
	}
	return result, nil
}

func (s *ReservationService) Get(ctx context.Context, reservationID string) (domain.Reservation, error) {
	return s.reservations.Get(ctx, reservationID)
}

func (s *ReservationService) publish(ctx context.Context, event events.Transition) {
	if err := s.publisher.Publish(ctx, event.BatchID, event); err != nil {
		s.logger.Printf("WARN: publish %s event for batch %s: %v", event.Type, event.BatchID, err)
	}
}

type statusWriter interface {
	UpdateStatus(ctx context.Context, id string, status domain.BatchStatus) error
}

// refreshStatus re-derives and persists a batch's status after a quantity or
// date mutation. Returns the derived status.
func refreshStatus(ctx context.Context, store statusWriter, b domain.Batch, now time.Time) (domain.BatchStatus, error) {
	next := domain.DeriveStatus(b, now)
	if next == b.Status {
		return next, nil
	}
	if err := store.UpdateStatus(ctx, b.ID, next); err != nil {
		return b.Status, err
	}
	return next, nil
}
