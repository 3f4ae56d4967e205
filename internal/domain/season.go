package domain

import "time"

// SeasonProfile is the per-item seasonal descriptor owned by the catalog
// seasonality collaborator. Read-only input to availability display logic.
type SeasonProfile struct {
	ItemID          string
	AvailableMonths []time.Month
	PeakMonths      []time.Month
	PreorderEnabled bool
}

func (p SeasonProfile) InSeason(m time.Month) bool {
	return containsMonth(p.AvailableMonths, m)
}

func (p SeasonProfile) IsPeak(m time.Month) bool {
	return containsMonth(p.PeakMonths, m)
}

// NextAvailableMonth returns the first month in the available set strictly
// after m, wrapping to next year when none remain. The second return is the
// number of years ahead (0 for later this year, 1 after wrapping). ok is
// false when the available set is empty.
func (p SeasonProfile) NextAvailableMonth(m time.Month) (next time.Month, yearsAhead int, ok bool) {
	if len(p.AvailableMonths) == 0 {
		return 0, 0, false
	}
	best := time.Month(13)
	for _, am := range p.AvailableMonths {
		if am > m && am < best {
			best = am
		}
	}
	if best <= time.December {
		return best, 0, true
	}
	// Wrap: earliest month next year.
	best = p.AvailableMonths[0]
	for _, am := range p.AvailableMonths {
		if am < best {
			best = am
		}
	}
	return best, 1, true
}

func containsMonth(months []time.Month, m time.Month) bool {
	for _, am := range months {
		if am == m {
			return true
		}
	}
	return false
}
