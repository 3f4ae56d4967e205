package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Blackmarket-coa/harvest-reserve/internal/app"
)

type AvailabilityAPI interface {
	Availability(ctx context.Context, itemID string) (app.AvailabilityInfo, error)
}

type availabilityResponse struct {
	ItemID            string     `json:"item_id"`
	QuantityRemaining string     `json:"quantity_remaining"`
	Scarcity          string     `json:"scarcity"`
	Message           string     `json:"message"`
	DaysSinceHarvest  *int       `json:"days_since_harvest,omitempty"`
	FreshnessNote     string     `json:"freshness_note,omitempty"`
	InSeason          bool       `json:"in_season"`
	PeakSeason        bool       `json:"peak_season"`
	PreorderAvailable bool       `json:"preorder_available"`
	PreorderFrom      *time.Time `json:"preorder_from,omitempty"`
}

// HandleItemAvailability serves the product-page availability view.
func HandleItemAvailability(svc AvailabilityAPI) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.Availability(r.Context(), chi.URLParam(r, "itemID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, availabilityResponse{
			ItemID:            info.ItemID,
			QuantityRemaining: info.QuantityRemaining.String(),
			Scarcity:          string(info.Scarcity),
			Message:           info.Message,
			DaysSinceHarvest:  info.DaysSinceHarvest,
			FreshnessNote:     info.FreshnessNote,
			InSeason:          info.InSeason,
			PeakSeason:        info.PeakSeason,
			PreorderAvailable: info.PreorderAvailable,
			PreorderFrom:      info.PreorderFrom,
		})
	}
}
