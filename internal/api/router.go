package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/answer"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/history"
)

// NewRouter creates a chi router with all API routes mounted.
// hist may be nil when history is disabled.
// ui, if non-nil, is mounted at / and serves the chat client.
func NewRouter(svc *answer.Service, hist history.Log, ui http.Handler) chi.Router {
	h := NewHandler(svc, hist)

	r := chi.NewRouter()
	r.Use(CORSMiddleware())

	r.Route("/api", func(r chi.Router) {
		r.Post("/ask", h.Ask)
		r.Get("/knowledge", h.Knowledge)
		r.Post("/knowledge/refresh", h.RefreshKnowledge)
		r.Get("/history", h.History)
	})

	if ui != nil {
		r.Mount("/", ui)
	}

	return r
}
