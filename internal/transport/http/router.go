package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	Reservations ReservationAPI
	Batches      BatchAPI
	Availability AvailabilityAPI
	CORSOrigins  []string
	Logger       *log.Logger
}

// NewRouter wires all handlers behind request logging and CORS.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", HealthHandler)

	r.Route("/reservations", func(r chi.Router) {
		r.Post("/", HandleCreateReservation(cfg.Reservations))
		r.Get("/{reservationID}", HandleGetReservation(cfg.Reservations))
		r.Post("/{reservationID}/convert", HandleConvertReservation(cfg.Reservations))
		r.Post("/{reservationID}/cancel", HandleCancelReservation(cfg.Reservations))
	})

	r.Route("/batches", func(r chi.Router) {
		r.Post("/", HandleDeclareBatch(cfg.Batches))
		r.Get("/{batchID}", HandleGetBatch(cfg.Batches))
		r.Post("/{batchID}/restock", HandleRestockBatch(cfg.Batches))
		r.Post("/{batchID}/retire", HandleRetireBatch(cfg.Batches))
	})

	r.Get("/items/{itemID}/availability", HandleItemAvailability(cfg.Availability))
	r.Get("/items/{itemID}/batches", HandleListItemBatches(cfg.Batches))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})

	return RequestLogger(CORS(cfg.CORSOrigins, r), cfg.Logger)
}
