package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires every endpoint the service exposes.
func NewRouter(chatH *ChatHandler, payH *PaymentHandler, db Pinger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/init", chatH.Init)
		r.Post("/message", chatH.Message)
	})

	r.Route("/api/payment", func(r chi.Router) {
		r.Post("/initialize", payH.Initialize)
		r.Get("/verify/{reference}", payH.Verify)
		r.Post("/webhook", payH.Webhook)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := db.Ping(req.Context()); err != nil {
			respondJSON(w, http.StatusInternalServerError, map[string]any{
				"status":  "error",
				"message": err.Error(),
			})
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	return r
}
