package events

import "time"

const (
	TypeReservationCreated   = "reservation.created"
	TypeReservationConverted = "reservation.converted"
	TypeReservationReleased  = "reservation.released"
	TypeBatchRestocked       = "batch.restocked"
)

// Transition is the wire payload for every state-transition event. Remaining
// carries the batch's open capacity after the transition so the catalog
// stock sync can mirror it without reading this engine's tables.
type Transition struct {
	Type           string    `json:"type"`
	BatchID        string    `json:"batch_id"`
	ItemID         string    `json:"item_id"`
	ReservationID  string    `json:"reservation_id,omitempty"`
	Quantity       string    `json:"quantity,omitempty"`
	Remaining      string    `json:"remaining"`
	ReleasedReason string    `json:"released_reason,omitempty"`
	At             time.Time `json:"at"`
}
