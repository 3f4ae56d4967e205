package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Blackmarket-coa/harvest-reserve/internal/domain"
)

const batchColumns = `id, item_id, vendor_id, total_quantity, sold_quantity, reserved_quantity,
low_stock_threshold, status, available_from, available_until, best_by, harvested_at, origin_note, created_at`

type BatchRepository struct {
	pool *pgxpool.Pool
}

func NewBatchRepository(pool *pgxpool.Pool) *BatchRepository {
	return &BatchRepository{pool: pool}
}

func (r *BatchRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *BatchRepository) Create(ctx context.Context, b domain.Batch) error {
	const stmt = `
INSERT INTO batches (id, item_id, vendor_id, total_quantity, sold_quantity, reserved_quantity,
	low_stock_threshold, status, available_from, available_until, best_by, harvested_at, origin_note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := db(ctx, r.pool).Exec(ctx, stmt,
		b.ID, b.ItemID, b.VendorID,
		b.TotalQuantity, b.SoldQuantity, b.ReservedQuantity, b.LowStockThreshold,
		b.Status, b.AvailableFrom, b.AvailableUntil, b.BestBy, b.HarvestedAt,
		b.OriginNote, b.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidQuantity
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("create batch: id %s already exists", b.ID)
		}
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

func (r *BatchRepository) Get(ctx context.Context, id string) (domain.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE id = $1`
	b, err := scanBatch(db(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Batch{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Batch{}, domain.ErrBatchNotFound
		}
		return domain.Batch{}, fmt.Errorf("get batch: %w", err)
	}
	return b, nil
}

// ListByItem returns an item's batches, newest harvest first. With
// includeTerminal false, expired and retired batches are excluded.
func (r *BatchRepository) ListByItem(ctx context.Context, itemID string, includeTerminal bool) ([]domain.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches WHERE item_id = $1`
	if !includeTerminal {
		query += ` AND status NOT IN ('expired', 'retired')`
	}
	query += ` ORDER BY harvested_at DESC NULLS LAST, created_at DESC`

	rows, err := db(ctx, r.pool).Query(ctx, query, itemID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if rows.Err() != nil {
		if isInvalidUUID(rows.Err()) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate batches: %w", rows.Err())
	}
	return batches, nil
}

// TryReserve is the single atomic capacity primitive. The check
// sold + reserved + qty <= total and the reserved increment happen in one
// conditional UPDATE, so the row store is the sole arbiter of capacity and
// two concurrent reservations can never both fit into the same remainder.
func (r *BatchRepository) TryReserve(ctx context.Context, id string, qty decimal.Decimal) (domain.Batch, error) {
	stmt := `
UPDATE batches
SET reserved_quantity = reserved_quantity + $2
WHERE id = $1
  AND status NOT IN ('expired', 'retired')
  AND sold_quantity + reserved_quantity + $2 <= total_quantity
RETURNING ` + batchColumns

	b, err := scanBatch(db(ctx, r.pool).QueryRow(ctx, stmt, id, qty))
	if err == nil {
		return b, nil
	}
	if isInvalidUUID(err) {
		return domain.Batch{}, domain.ErrInvalidID
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Batch{}, fmt.Errorf("try reserve: %w", err)
	}

	// Guard did not match: distinguish a missing batch from a full or
	// terminal one.
	existing, getErr := r.Get(ctx, id)
	if getErr != nil {
		return domain.Batch{}, getErr
	}
	if existing.IsTerminal() {
		return domain.Batch{}, domain.ErrBatchTerminal
	}
	return domain.Batch{}, domain.ErrCapacityExceeded
}

// Convert moves quantity from reserved to sold in one statement. The
// reserved decrement is floored at zero so a duplicate convert attempt that
// slipped past the reservation guard can never drive it negative.
func (r *BatchRepository) Convert(ctx context.Context, id string, qty decimal.Decimal) (domain.Batch, error) {
	stmt := `
UPDATE batches
SET reserved_quantity = GREATEST(reserved_quantity - $2, 0),
    sold_quantity = sold_quantity + $2
WHERE id = $1
RETURNING ` + batchColumns

	b, err := scanBatch(db(ctx, r.pool).QueryRow(ctx, stmt, id, qty))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Batch{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Batch{}, domain.ErrBatchNotFound
		}
		return domain.Batch{}, fmt.Errorf("convert batch quantity: %w", err)
	}
	return b, nil
}

// Release hands reserved quantity back to the pool, floored at zero.
func (r *BatchRepository) Release(ctx context.Context, id string, qty decimal.Decimal) (domain.Batch, error) {
	stmt := `
UPDATE batches
SET reserved_quantity = GREATEST(reserved_quantity - $2, 0)
WHERE id = $1
RETURNING ` + batchColumns

	b, err := scanBatch(db(ctx, r.pool).QueryRow(ctx, stmt, id, qty))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Batch{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Batch{}, domain.ErrBatchNotFound
		}
		return domain.Batch{}, fmt.Errorf("release batch quantity: %w", err)
	}
	return b, nil
}

func (r *BatchRepository) UpdateStatus(ctx context.Context, id string, status domain.BatchStatus) error {
	const stmt = `UPDATE batches SET status = $2 WHERE id = $1`

	tag, err := db(ctx, r.pool).Exec(ctx, stmt, id, status)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update batch status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBatchNotFound
	}
	return nil
}

// AdjustTotalQuantity sets a new total, guarded so the committed quantity
// (sold + reserved) always still fits.
func (r *BatchRepository) AdjustTotalQuantity(ctx context.Context, id string, total decimal.Decimal) (domain.Batch, error) {
	stmt := `
UPDATE batches
SET total_quantity = $2
WHERE id = $1
  AND sold_quantity + reserved_quantity <= $2
RETURNING ` + batchColumns

	b, err := scanBatch(db(ctx, r.pool).QueryRow(ctx, stmt, id, total))
	if err == nil {
		return b, nil
	}
	if isInvalidUUID(err) {
		return domain.Batch{}, domain.ErrInvalidID
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Batch{}, fmt.Errorf("adjust total quantity: %w", err)
	}

	if _, getErr := r.Get(ctx, id); getErr != nil {
		return domain.Batch{}, getErr
	}
	return domain.Batch{}, domain.ErrInvalidTotalQuantity
}

func scanBatch(row pgx.Row) (domain.Batch, error) {
	var b domain.Batch
	err := row.Scan(
		&b.ID, &b.ItemID, &b.VendorID,
		&b.TotalQuantity, &b.SoldQuantity, &b.ReservedQuantity, &b.LowStockThreshold,
		&b.Status, &b.AvailableFrom, &b.AvailableUntil, &b.BestBy, &b.HarvestedAt,
		&b.OriginNote, &b.CreatedAt,
	)
	return b, err
}
