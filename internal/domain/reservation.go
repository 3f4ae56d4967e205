package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationOutcome string

const (
	ReservationActive    ReservationOutcome = "active"
	ReservationConverted ReservationOutcome = "converted"
	ReservationReleased  ReservationOutcome = "released"
)

// ReleaseReason records why a reservation was released. Observability only;
// it does not change the state machine (released is released).
type ReleaseReason string

const (
	ReleaseReasonCancelled ReleaseReason = "cancelled"
	ReleaseReasonExpired   ReleaseReason = "expired"
)

type HolderKind string

const (
	HolderCustomer HolderKind = "customer"
	HolderCart     HolderKind = "cart"
	HolderSession  HolderKind = "session"
)

// HolderRef identifies who owns a hold: a customer, a cart, or an anonymous
// session. Modelled as a tagged variant so exactly one reference is present
// by construction.
type HolderRef struct {
	Kind HolderKind
	ID   string
}

func (h HolderRef) Validate() error {
	switch h.Kind {
	case HolderCustomer, HolderCart, HolderSession:
	default:
		return ErrInvalidHolder
	}
	if h.ID == "" {
		return ErrInvalidHolder
	}
	return nil
}

// Reservation is a time-bounded claim against a batch's capacity. It moves
// active -> converted or active -> released exactly once; both are terminal.
type Reservation struct {
	ID             string
	BatchID        string
	Quantity       decimal.Decimal
	Holder         HolderRef
	Outcome        ReservationOutcome
	ExpiresAt      time.Time
	OrderReference string
	ReleasedReason ReleaseReason
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}
