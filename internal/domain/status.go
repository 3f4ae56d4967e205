package domain

import "time"

// DeriveStatus computes a batch's lifecycle status from its quantities and
// temporal fields. Pure function of its inputs; callers pass an explicit now
// so status derivation is deterministic under test.
//
// Precedence, first match wins:
//  1. retired stays retired
//  2. best_by in the past -> expired
//  3. available_until in the past -> sold_out
//  4. nothing left unsold -> sold_out
//  5. unsold at or below the low-stock threshold -> low_stock
//  6. available_from in the future -> planned
//  7. available
func DeriveStatus(b Batch, now time.Time) BatchStatus {
	if b.Status == BatchStatusRetired {
		return BatchStatusRetired
	}
	if b.BestBy != nil && b.BestBy.Before(now) {
		return BatchStatusExpired
	}
	if b.AvailableUntil != nil && b.AvailableUntil.Before(now) {
		return BatchStatusSoldOut
	}

	unsold := b.Unsold()
	if unsold.Sign() <= 0 {
		return BatchStatusSoldOut
	}
	if unsold.Cmp(b.LowStockThreshold) <= 0 {
		return BatchStatusLowStock
	}

	if b.AvailableFrom != nil && b.AvailableFrom.After(now) {
		return BatchStatusPlanned
	}
	return BatchStatusAvailable
}
