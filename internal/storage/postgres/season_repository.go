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

// SeasonRepository reads the per-item seasonal descriptors mirrored from the
// catalog seasonality collaborator. This engine never writes them.
type SeasonRepository struct {
	pool *pgxpool.Pool
}

func NewSeasonRepository(pool *pgxpool.Pool) *SeasonRepository {
	return &SeasonRepository{pool: pool}
}

// GetProfile returns nil when the item carries no seasonal descriptor.
func (r *SeasonRepository) GetProfile(ctx context.Context, itemID string) (*domain.SeasonProfile, error) {
	const query = `
SELECT item_id, available_months, peak_months, preorder_enabled
FROM item_seasons
WHERE item_id = $1`

	var (
		p         domain.SeasonProfile
		available []int32
		peak      []int32
	)
	err := db(ctx, r.pool).QueryRow(ctx, query, itemID).
		Scan(&p.ItemID, &available, &peak, &p.PreorderEnabled)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get season profile: %w", err)
	}

	p.AvailableMonths = toMonths(available)
	p.PeakMonths = toMonths(peak)
	return &p, nil
}

func toMonths(raw []int32) []time.Month {
	months := make([]time.Month, 0, len(raw))
	for _, m := range raw {
		if m >= 1 && m <= 12 {
			months = append(months, time.Month(m))
		}
	}
	return months
}
