package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Blackmarket-coa/harvest-reserve/internal/app"
	"github.com/Blackmarket-coa/harvest-reserve/internal/domain"
)

// ReservationAPI is the slice of the reservation manager the transport needs.
type ReservationAPI interface {
	Reserve(ctx context.Context, in app.ReserveInput) (domain.Reservation, error)
	Convert(ctx context.Context, reservationID, orderRef string) (domain.Reservation, error)
	Cancel(ctx context.Context, reservationID string) (domain.Reservation, error)
	Get(ctx context.Context, reservationID string) (domain.Reservation, error)
}

type createReservationRequest struct {
	BatchID    string          `json:"batch_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	HolderKind string          `json:"holder_kind"`
	HolderID   string          `json:"holder_id"`
	TTLSeconds int             `json:"ttl_seconds,omitempty"`
}

type reservationResponse struct {
	ID             string     `json:"id"`
	BatchID        string     `json:"batch_id"`
	Quantity       string     `json:"quantity"`
	Outcome        string     `json:"outcome"`
	ExpiresAt      time.Time  `json:"expires_at"`
	OrderReference string     `json:"order_reference,omitempty"`
	ReleasedReason string     `json:"released_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

func toReservationResponse(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:             r.ID,
		BatchID:        r.BatchID,
		Quantity:       r.Quantity.String(),
		Outcome:        string(r.Outcome),
		ExpiresAt:      r.ExpiresAt,
		OrderReference: r.OrderReference,
		ReleasedReason: string(r.ReleasedReason),
		CreatedAt:      r.CreatedAt,
		ResolvedAt:     r.ResolvedAt,
	}
}

// HandleCreateReservation places a hold; used by the add-to-cart flow.
func HandleCreateReservation(svc ReservationAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.BatchID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "batch_id is required")
			return
		}

		res, err := svc.Reserve(r.Context(), app.ReserveInput{
			BatchID:  req.BatchID,
			Quantity: req.Quantity,
			Holder:   domain.HolderRef{Kind: domain.HolderKind(req.HolderKind), ID: req.HolderID},
			TTL:      time.Duration(req.TTLSeconds) * time.Second,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toReservationResponse(res))
	}
}

type convertReservationRequest struct {
	OrderReference string `json:"order_reference"`
}

// HandleConvertReservation finalizes a hold into a sale; the order-placement
// workflow calls it at-least-once and repeats are safe.
func HandleConvertReservation(svc ReservationAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req convertReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		res, err := svc.Convert(r.Context(), chi.URLParam(r, "reservationID"), req.OrderReference)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

// HandleCancelReservation releases a hold; used by cart abandonment and
// explicit removal.
func HandleCancelReservation(svc ReservationAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Cancel(r.Context(), chi.URLParam(r, "reservationID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func HandleGetReservation(svc ReservationAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Get(r.Context(), chi.URLParam(r, "reservationID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
