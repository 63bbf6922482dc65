package ws

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires the realtime endpoint and a liveness probe.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", h.ServeWS)
	return r
}
