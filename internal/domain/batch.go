package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BatchStatus string

const (
	BatchStatusPlanned   BatchStatus = "planned"
	BatchStatusAvailable BatchStatus = "available"
	BatchStatusLowStock  BatchStatus = "low_stock"
	BatchStatusSoldOut   BatchStatus = "sold_out"
	BatchStatusExpired   BatchStatus = "expired"
	BatchStatusRetired   BatchStatus = "retired"
)

// Batch is a finite, dated production run of a sellable item.
// Quantities are fractional because weight-based goods sell in partial units.
type Batch struct {
	ID                string
	ItemID            string
	VendorID          string
	TotalQuantity     decimal.Decimal
	SoldQuantity      decimal.Decimal
	ReservedQuantity  decimal.Decimal
	LowStockThreshold decimal.Decimal
	Status            BatchStatus
	AvailableFrom     *time.Time
	AvailableUntil    *time.Time
	BestBy            *time.Time
	HarvestedAt       *time.Time
	OriginNote        string
	CreatedAt         time.Time
}

// Remaining is the quantity open to new reservations.
func (b Batch) Remaining() decimal.Decimal {
	return b.TotalQuantity.Sub(b.SoldQuantity).Sub(b.ReservedQuantity)
}

// Unsold is total minus permanently consumed quantity. Holds do not count:
// an unconverted hold never makes a batch sold out on its own.
func (b Batch) Unsold() decimal.Decimal {
	return b.TotalQuantity.Sub(b.SoldQuantity)
}

// IsTerminal reports whether the batch can no longer take reservations
// under any circumstances. SOLD_OUT is recoverable via restock and is
// deliberately not terminal.
func (b Batch) IsTerminal() bool {
	return b.Status == BatchStatusExpired || b.Status == BatchStatusRetired
}
