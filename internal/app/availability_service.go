package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Blackmarket-coa/harvest-reserve/internal/clock"
	"github.com/Blackmarket-coa/harvest-reserve/internal/domain"
)

type AvailabilityStore interface {
	ListByItem(ctx context.Context, itemID string, includeTerminal bool) ([]domain.Batch, error)
}

type SeasonStore interface {
	// GetProfile returns nil when the item has no seasonal descriptor.
	GetProfile(ctx context.Context, itemID string) (*domain.SeasonProfile, error)
}

// AvailabilityInfo is the storefront read model for one sellable item.
type AvailabilityInfo struct {
	ItemID            string
	QuantityRemaining decimal.Decimal
	Scarcity          domain.ScarcityLevel
	Message           string
	DaysSinceHarvest  *int
	FreshnessNote     string
	InSeason          bool
	PeakSeason        bool
	PreorderAvailable bool
	PreorderFrom      *time.Time
}

// AvailabilityService is the read side: it never mutates batch or
// reservation state.
type AvailabilityService struct {
	batches AvailabilityStore
	seasons SeasonStore
	clock   clock.Clock
}

func NewAvailabilityService(batches AvailabilityStore, seasons SeasonStore, clk clock.Clock) *AvailabilityService {
	return &AvailabilityService{batches: batches, seasons: seasons, clock: clk}
}

// Availability sums open capacity across the item's non-terminal batches and
// derives the scarcity, freshness, and seasonal display hints.
func (s *AvailabilityService) Availability(ctx context.Context, itemID string) (AvailabilityInfo, error) {
	if itemID == "" {
		return AvailabilityInfo{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	batches, err := s.batches.ListByItem(ctx, itemID, false)
	if err != nil {
		return AvailabilityInfo{}, err
	}

	remaining := decimal.Zero
	var latestHarvest *time.Time
	for _, b := range batches {
		remaining = remaining.Add(b.Remaining())
		if b.HarvestedAt != nil && (latestHarvest == nil || b.HarvestedAt.After(*latestHarvest)) {
			h := *b.HarvestedAt
			latestHarvest = &h
		}
	}

	level := domain.ScarcityFor(remaining)
	info := AvailabilityInfo{
		ItemID:            itemID,
		QuantityRemaining: remaining,
		Scarcity:          level,
		Message:           domain.ScarcityMessage(level, remaining),
		InSeason:          true,
	}

	if latestHarvest != nil {
		days := int(now.Sub(*latestHarvest).Hours() / 24)
		if days < 0 {
			days = 0
		}
		info.DaysSinceHarvest = &days
		switch {
		case days <= 1:
			info.FreshnessNote = "harvested today"
		case days <= 3:
			info.FreshnessNote = fmt.Sprintf("harvested %d days ago", days)
		}
	}

	profile, err := s.seasons.GetProfile(ctx, itemID)
	if err != nil {
		return AvailabilityInfo{}, err
	}
	if profile == nil {
		return info, nil
	}

	month := now.Month()
	info.InSeason = profile.InSeason(month)
	info.PeakSeason = profile.IsPeak(month)

	if !info.InSeason && profile.PreorderEnabled {
		if next, yearsAhead, ok := profile.NextAvailableMonth(month); ok {
			target := time.Date(now.Year()+yearsAhead, next, 1, 0, 0, 0, 0, now.Location())
			info.PreorderAvailable = true
			info.PreorderFrom = &target
		}
	}
	return info, nil
}
