package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Blackmarket-coa/harvest-reserve/internal/domain"
	"github.com/Blackmarket-coa/harvest-reserve/internal/storage/postgres"
	"github.com/Blackmarket-coa/harvest-reserve/internal/testutil"
)

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newBatch(total, sold, reserved string) domain.Batch {
	return domain.Batch{
		ID:                uuid.NewString(),
		ItemID:            uuid.NewString(),
		VendorID:          uuid.NewString(),
		TotalQuantity:     qty(total),
		SoldQuantity:      qty(sold),
		ReservedQuantity:  qty(reserved),
		LowStockThreshold: qty("0"),
		Status:            domain.BatchStatusAvailable,
		CreatedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestBatchRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := postgres.NewBatchRepository(pool)

	t.Run("create and get roundtrip", func(t *testing.T) {
		harvested := time.Now().UTC().Truncate(time.Microsecond).Add(-48 * time.Hour)
		b := newBatch("12.5", "0", "0")
		b.HarvestedAt = &harvested
		b.OriginNote = "east orchard"

		if err := repo.Create(ctx, b); err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := repo.Get(ctx, b.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !got.TotalQuantity.Equal(b.TotalQuantity) {
			t.Fatalf("expected total %s, got %s", b.TotalQuantity, got.TotalQuantity)
		}
		if got.OriginNote != "east orchard" {
			t.Fatalf("expected origin note, got %q", got.OriginNote)
		}
		if got.HarvestedAt == nil || !got.HarvestedAt.Equal(harvested) {
			t.Fatalf("expected harvested_at %v, got %v", harvested, got.HarvestedAt)
		}
	})

	t.Run("get unknown batch", func(t *testing.T) {
		if _, err := repo.Get(ctx, uuid.NewString()); err != domain.ErrBatchNotFound {
			t.Fatalf("expected ErrBatchNotFound, got %v", err)
		}
	})

	t.Run("get with malformed id", func(t *testing.T) {
		if _, err := repo.Get(ctx, "not-a-uuid"); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("try reserve claims capacity", func(t *testing.T) {
		b := newBatch("10", "2", "3")
		if err := repo.Create(ctx, b); err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := repo.TryReserve(ctx, b.ID, qty("5"))
		if err != nil {
			t.Fatalf("try reserve: %v", err)
		}
		if !got.ReservedQuantity.Equal(qty("8")) {
			t.Fatalf("expected reserved 8, got %s", got.ReservedQuantity)
		}

		if _, err := repo.TryReserve(ctx, b.ID, qty("0.001")); err != domain.ErrCapacityExceeded {
			t.Fatalf("expected ErrCapacityExceeded, got %v", err)
		}
	})

	t.Run("try reserve against terminal batch", func(t *testing.T) {
		b := newBatch("10", "0", "0")
		b.Status = domain.BatchStatusRetired
		if err := repo.Create(ctx, b); err != nil {
			t.Fatalf("create: %v", err)
		}

		if _, err := repo.TryReserve(ctx, b.ID, qty("1")); err != domain.ErrBatchTerminal {
			t.Fatalf("expected ErrBatchTerminal, got %v", err)
		}
	})

	t.Run("try reserve against unknown batch", func(t *testing.T) {
		if _, err := repo.TryReserve(ctx, uuid.NewString(), qty("1")); err != domain.ErrBatchNotFound {
			t.Fatalf("expected ErrBatchNotFound, got %v", err)
		}
	})

	t.Run("concurrent try reserve never oversells", func(t *testing.T) {
		b := newBatch("10", "0", "0")
		if err := repo.Create(ctx, b); err != nil {
			t.Fatalf("create: %v", err)
		}

		const workers = 20
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.TryReserve(ctx, b.ID, qty("2"))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		succeeded := 0
		for err := range errs {
			switch err {
			case nil:
				succeeded++
			case domain.ErrCapacityExceeded:
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if succeeded != 5 {
			t.Fatalf("expected exactly 5 winners, got %d", succeeded)
		}

		got, err := repo.Get(ctx, b.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !got.ReservedQuantity.Equal(qty("10")) {
			t.Fatalf("expected reserved 10, got %s", got.ReservedQuantity)
		}
	})

	t.Run("convert moves reserved to sold", func(t *testing.T) {
		b := newBatch("10", "0", "6")
		if err := repo.Create(ctx, b); err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := repo.Convert(ctx, b.ID, qty("6"))
		if err != nil {
			t.Fatalf("convert: %v", err)
		}
		if !got.SoldQuantity.Equal(qty("6")) || !got.ReservedQuantity.Equal(qty("0")) {
			t.Fatalf("expected sold=6 reserved=0, got sold=%s reserved=%s", got.SoldQuantity, got.ReservedQuantity)
		}
	})

	t.Run("release floors at zero", func(t *testing.T) {
		b := newBatch("10", "0", "2")
		if err := repo.Create(ctx, b); err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := repo.Release(ctx, b.ID, qty("5"))
		if err != nil {
			t.Fatalf("release: %v", err)
		}
		if !got.ReservedQuantity.Equal(qty("0")) {
			t.Fatalf("expected reserved floored at 0, got %s", got.ReservedQuantity)
		}
	})

	t.Run("adjust total guards committed quantity", func(t *testing.T) {
		b := newBatch("10", "4", "3")
		if err := repo.Create(ctx, b); err != nil {
			t.Fatalf("create: %v", err)
		}

		if _, err := repo.AdjustTotalQuantity(ctx, b.ID, qty("6")); err != domain.ErrInvalidTotalQuantity {
			t.Fatalf("expected ErrInvalidTotalQuantity, got %v", err)
		}

		got, err := repo.AdjustTotalQuantity(ctx, b.ID, qty("20"))
		if err != nil {
			t.Fatalf("adjust: %v", err)
		}
		if !got.TotalQuantity.Equal(qty("20")) {
			t.Fatalf("expected total 20, got %s", got.TotalQuantity)
		}
	})

	t.Run("update status of unknown batch", func(t *testing.T) {
		if err := repo.UpdateStatus(ctx, uuid.NewString(), domain.BatchStatusRetired); err != domain.ErrBatchNotFound {
			t.Fatalf("expected ErrBatchNotFound, got %v", err)
		}
	})

	t.Run("list by item filters terminal batches", func(t *testing.T) {
		itemID := uuid.NewString()

		live := newBatch("10", "0", "0")
		live.ItemID = itemID
		retired := newBatch("10", "0", "0")
		retired.ItemID = itemID
		retired.Status = domain.BatchStatusRetired
		for _, b := range []domain.Batch{live, retired} {
			if err := repo.Create(ctx, b); err != nil {
				t.Fatalf("create: %v", err)
			}
		}

		open, err := repo.ListByItem(ctx, itemID, false)
		if err != nil {
			t.Fatalf("list open: %v", err)
		}
		if len(open) != 1 || open[0].ID != live.ID {
			t.Fatalf("expected only the live batch, got %d", len(open))
		}

		all, err := repo.ListByItem(ctx, itemID, true)
		if err != nil {
			t.Fatalf("list all: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("expected 2 batches, got %d", len(all))
		}
	})
}
