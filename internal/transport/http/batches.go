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

// BatchAPI is the slice of the batch service the transport needs.
type BatchAPI interface {
	DeclareBatch(ctx context.Context, in app.DeclareBatchInput) (domain.Batch, error)
	Restock(ctx context.Context, batchID string, newTotal decimal.Decimal) (domain.Batch, error)
	Retire(ctx context.Context, batchID string) (domain.Batch, error)
	Get(ctx context.Context, batchID string) (domain.Batch, error)
	ListByItem(ctx context.Context, itemID string) ([]domain.Batch, error)
}

type declareBatchRequest struct {
	ItemID            string          `json:"item_id"`
	VendorID          string          `json:"vendor_id"`
	TotalQuantity     decimal.Decimal `json:"total_quantity"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
	AvailableFrom     *time.Time      `json:"available_from,omitempty"`
	AvailableUntil    *time.Time      `json:"available_until,omitempty"`
	BestBy            *time.Time      `json:"best_by,omitempty"`
	HarvestedAt       *time.Time      `json:"harvested_at,omitempty"`
	OriginNote        string          `json:"origin_note,omitempty"`
}

type batchResponse struct {
	ID                string     `json:"id"`
	ItemID            string     `json:"item_id"`
	VendorID          string     `json:"vendor_id"`
	TotalQuantity     string     `json:"total_quantity"`
	SoldQuantity      string     `json:"sold_quantity"`
	ReservedQuantity  string     `json:"reserved_quantity"`
	Remaining         string     `json:"remaining"`
	LowStockThreshold string     `json:"low_stock_threshold"`
	Status            string     `json:"status"`
	AvailableFrom     *time.Time `json:"available_from,omitempty"`
	AvailableUntil    *time.Time `json:"available_until,omitempty"`
	BestBy            *time.Time `json:"best_by,omitempty"`
	HarvestedAt       *time.Time `json:"harvested_at,omitempty"`
	OriginNote        string     `json:"origin_note,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toBatchResponse(b domain.Batch) batchResponse {
	return batchResponse{
		ID:                b.ID,
		ItemID:            b.ItemID,
		VendorID:          b.VendorID,
		TotalQuantity:     b.TotalQuantity.String(),
		SoldQuantity:      b.SoldQuantity.String(),
		ReservedQuantity:  b.ReservedQuantity.String(),
		Remaining:         b.Remaining().String(),
		LowStockThreshold: b.LowStockThreshold.String(),
		Status:            string(b.Status),
		AvailableFrom:     b.AvailableFrom,
		AvailableUntil:    b.AvailableUntil,
		BestBy:            b.BestBy,
		HarvestedAt:       b.HarvestedAt,
		OriginNote:        b.OriginNote,
		CreatedAt:         b.CreatedAt,
	}
}

// HandleDeclareBatch records a vendor's new production run.
func HandleDeclareBatch(svc BatchAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req declareBatchRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		batch, err := svc.DeclareBatch(r.Context(), app.DeclareBatchInput{
			ItemID:            req.ItemID,
			VendorID:          req.VendorID,
			TotalQuantity:     req.TotalQuantity,
			LowStockThreshold: req.LowStockThreshold,
			AvailableFrom:     req.AvailableFrom,
			AvailableUntil:    req.AvailableUntil,
			BestBy:            req.BestBy,
			HarvestedAt:       req.HarvestedAt,
			OriginNote:        req.OriginNote,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBatchResponse(batch))
	}
}

type restockRequest struct {
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

func HandleRestockBatch(svc BatchAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req restockRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		batch, err := svc.Restock(r.Context(), chi.URLParam(r, "batchID"), req.TotalQuantity)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBatchResponse(batch))
	}
}

func HandleRetireBatch(svc BatchAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batch, err := svc.Retire(r.Context(), chi.URLParam(r, "batchID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBatchResponse(batch))
	}
}

func HandleGetBatch(svc BatchAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batch, err := svc.Get(r.Context(), chi.URLParam(r, "batchID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBatchResponse(batch))
	}
}

func HandleListItemBatches(svc BatchAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batches, err := svc.ListByItem(r.Context(), chi.URLParam(r, "itemID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]batchResponse, 0, len(batches))
		for _, b := range batches {
			out = append(out, toBatchResponse(b))
		}
		writeJSON(w, http.StatusOK, out)
	}
}
