package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bluefermion/feedback-capture/internal/version"
)

// NewRouter mounts the collector API.
func NewRouter(h *FeedbackHandler, l *zap.SugaredLogger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(Recovery(l))
	r.Use(Logging(l))
	r.Use(CORS)

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)

	r.Route("/api/feedback", func(r chi.Router) {
		r.Post("/", h.HandleSubmit)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Patch("/{id}", h.HandleUpdateStatus)
		r.Get("/{id}/screenshot", h.HandleScreenshot)
	})

	return r
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "feedback",
		"version": version.Version,
		"status":  "ok",
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
