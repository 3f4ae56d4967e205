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

type BatchAdminStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, b domain.Batch) error
	Get(ctx context.Context, id string) (domain.Batch, error)
	ListByItem(ctx context.Context, itemID string, includeTerminal bool) ([]domain.Batch, error)
	AdjustTotalQuantity(ctx context.Context, id string, total decimal.Decimal) (domain.Batch, error)
	UpdateStatus(ctx context.Context, id string, status domain.BatchStatus) error
}

// BatchService covers the vendor-facing batch lifecycle: declaring a
// production run, restocking it, and retiring it.
type BatchService struct {
	store     BatchAdminStore
	clock     clock.Clock
	publisher EventPublisher
	logger    *log.Logger
}

func NewBatchService(store BatchAdminStore, clk clock.Clock, publisher EventPublisher, logger *log.Logger) *BatchService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &BatchService{store: store, clock: clk, publisher: publisher, logger: logger}
}

type DeclareBatchInput struct {
	ItemID            string
	VendorID          string
	TotalQuantity     decimal.Decimal
	LowStockThreshold decimal.Decimal
	AvailableFrom     *time.Time
	AvailableUntil    *time.Time
	BestBy            *time.Time
	HarvestedAt       *time.Time
	OriginNote        string
}

// DeclareBatch records a new production run. Initial status follows the
// derivation rules: planned when availability opens in the future, available
// otherwise.
func (s *BatchService) DeclareBatch(ctx context.Context, in DeclareBatchInput) (domain.Batch, error) {
	if in.ItemID == "" || in.VendorID == "" {
		return domain.Batch{}, domain.ErrInvalidID
	}
	if in.TotalQuantity.Sign() <= 0 {
		return domain.Batch{}, domain.ErrInvalidQuantity
	}
	if in.LowStockThreshold.Sign() < 0 {
		return domain.Batch{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	batch := domain.Batch{
		ID:                uuid.NewString(),
		ItemID:            in.ItemID,
		VendorID:          in.VendorID,
		TotalQuantity:     in.TotalQuantity,
		SoldQuantity:      decimal.Zero,
		ReservedQuantity:  decimal.Zero,
		LowStockThreshold: in.LowStockThreshold,
		AvailableFrom:     in.AvailableFrom,
		AvailableUntil:    in.AvailableUntil,
		BestBy:            in.BestBy,
		HarvestedAt:       in.HarvestedAt,
		OriginNote:        in.OriginNote,
		CreatedAt:         now,
	}
	batch.Status = domain.DeriveStatus(batch, now)

	if err := s.store.Create(ctx, batch); err != nil {
		return domain.Batch{}, err
	}
	return batch, nil
}

// Restock raises (or lowers) a batch's total quantity. The committed
// quantity must still fit under the new total, and a batch past its best-by
// or retired cannot come back. A sold-out batch recovers to available or
// low-stock through the status refresh.
func (s *BatchService) Restock(ctx context.Context, batchID string, newTotal decimal.Decimal) (domain.Batch, error) {
	if newTotal.Sign() <= 0 {
		return domain.Batch{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	var result domain.Batch

	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		current, err := s.store.Get(txCtx, batchID)
		if err != nil {
			return err
		}
		if current.IsTerminal() {
			return domain.ErrBatchTerminal
		}

		b, err := s.store.AdjustTotalQuantity(txCtx, batchID, newTotal)
		if err != nil {
			return err
		}
		if b.Status, err = refreshStatus(txCtx, s.store, b, now); err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		return domain.Batch{}, err
	}

	if err := s.publisher.Publish(ctx, result.ID, events.Transition{
		Type:      events.TypeBatchRestocked,
		BatchID:   result.ID,
		ItemID:    result.ItemID,
		Remaining: result.Remaining().String(),
		At:        now,
	}); err != nil {
		s.logger.Printf("WARN: publish restock event for batch %s: %v", result.ID, err)
	}
	return result, nil
}

// Retire takes a batch off sale permanently. Batches are never hard-deleted
// once reservations or sales have touched them; retirement preserves the
// audit trail.
func (s *BatchService) Retire(ctx context.Context, batchID string) (domain.Batch, error) {
	var result domain.Batch
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		b, err := s.store.Get(txCtx, batchID)
		if err != nil {
			return err
		}
		if b.Status == domain.BatchStatusRetired {
			result = b
			return nil
		}
		if err := s.store.UpdateStatus(txCtx, batchID, domain.BatchStatusRetired); err != nil {
			return err
		}
		b.Status = domain.BatchStatusRetired
		result = b
		return nil
	})
	if err != nil {
		return domain.Batch{}, err
	}
	return result, nil
}

func (s *BatchService) Get(ctx context.Context, batchID string) (domain.Batch, error) {
	return s.store.Get(ctx, batchID)
}

func (s *BatchService) ListByItem(ctx context.Context, itemID string) ([]domain.Batch, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.store.ListByItem(ctx, itemID, true)
}

// RefreshStatus re-derives one batch's persisted status. The reaper uses it
// after a sweep so temporal flips (planned opening up, best-by passing) get
// a writer even when no reservation touched the batch.
func (s *BatchService) RefreshStatus(ctx context.Context, batchID string) error {
	now := s.clock.Now()
	return s.store.WithTx(ctx, func(txCtx context.Context) error {
		b, err := s.store.Get(txCtx, batchID)
		if err != nil {
			return err
		}
		_, err = refreshStatus(txCtx, s.store, b, now)
		return err
	})
}
