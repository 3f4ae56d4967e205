package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Blackmarket-coa/harvest-reserve/internal/domain"
)

const reservationColumns = `id, batch_id, quantity, holder_kind, holder_id, outcome, expires_at,
COALESCE(order_reference, ''), COALESCE(released_reason, ''), created_at, resolved_at`

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ReservationRepository) Create(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, batch_id, quantity, holder_kind, holder_id, outcome, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := db(ctx, r.pool).Exec(ctx, stmt,
		res.ID, res.BatchID, res.Quantity,
		res.Holder.Kind, res.Holder.ID,
		res.Outcome, res.ExpiresAt, res.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrBatchNotFound
		}
		if isCheckViolation(err) {
			return domain.ErrInvalidHolder
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) Get(ctx context.Context, id string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	res, err := scanReservation(db(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// MarkConverted flips an active reservation to converted. The outcome guard
// in the WHERE clause makes the transition single-shot: a concurrent convert
// or cancel that already resolved the row leaves nothing to update, and nil
// is returned so the caller can apply its idempotency rule.
func (r *ReservationRepository) MarkConverted(ctx context.Context, id, orderRef string, now time.Time) (*domain.Reservation, error) {
	stmt := `
UPDATE reservations
SET outcome = 'converted', order_reference = $2, resolved_at = $3
WHERE id = $1 AND outcome = 'active'
RETURNING ` + reservationColumns

	res, err := scanReservation(db(ctx, r.pool).QueryRow(ctx, stmt, id, orderRef, now))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("mark reservation converted: %w", err)
	}
	return &res, nil
}

// MarkReleased flips an active reservation to released, recording why.
// Same single-shot guard as MarkConverted.
func (r *ReservationRepository) MarkReleased(ctx context.Context, id string, reason domain.ReleaseReason, now time.Time) (*domain.Reservation, error) {
	stmt := `
UPDATE reservations
SET outcome = 'released', released_reason = $2, resolved_at = $3
WHERE id = $1 AND outcome = 'active'
RETURNING ` + reservationColumns

	res, err := scanReservation(db(ctx, r.pool).QueryRow(ctx, stmt, id, reason, now))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("mark reservation released: %w", err)
	}
	return &res, nil
}

// ListExpired returns a bounded page of active reservations whose expiry has
// passed, oldest expiry first so the reaper drains the backlog in order.
func (r *ReservationRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
	query := `
SELECT ` + reservationColumns + `
FROM reservations
WHERE outcome = 'active' AND expires_at < $1
ORDER BY expires_at ASC
LIMIT $2`

	rows, err := db(ctx, r.pool).Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reservations: %w", rows.Err())
	}
	return out, nil
}

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(
		&res.ID, &res.BatchID, &res.Quantity,
		&res.Holder.Kind, &res.Holder.ID,
		&res.Outcome, &res.ExpiresAt,
		&res.OrderReference, &res.ReleasedReason,
		&res.CreatedAt, &res.ResolvedAt,
	)
	return res, err
}
