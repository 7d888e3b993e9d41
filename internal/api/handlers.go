package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rajatgoel03/courses-guide-chatbot/internal/answer"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/apperr"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/history"
	"github.com/rajatgoel03/courses-guide-chatbot/internal/llm"
)

// Handler holds API route handlers.
type Handler struct {
	svc  *answer.Service
	hist history.Log
}

// NewHandler creates a new Handler. hist may be nil when history is disabled.
func NewHandler(svc *answer.Service, hist history.Log) *Handler {
	return &Handler{svc: svc, hist: hist}
}

// Ask handles POST /api/ask.
//
//	@Summary		Answer a question grounded in the course materials
//	@Tags			ask
//	@Accept			json
//	@Produce		json
//	@Param			body	body		askRequest	true	"Question or chat history (exactly one)"
//	@Success		200		{object}	askResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/ask [post]
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	var (
		reply *llm.Reply
		err   error
	)
	if len(req.ChatHistory) > 0 {
		reply, err = h.svc.Chat(r.Context(), req.ChatHistory)
	} else {
		reply, err = h.svc.Ask(r.Context(), req.UserQuestion)
	}
	if err != nil {
		h.askError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replyResponse(reply))
}

// askError maps answer failures onto user-facing 500 bodies. Safety-filtered
// replies get a different message than merely empty ones.
func (h *Handler) askError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrEmptyKnowledge):
		slog.Error("ask failed: knowledge base empty", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("the knowledge base is empty; check the configured document source"))
	case errors.Is(err, apperr.ErrUpstreamFetch):
		slog.Error("ask failed: source unavailable", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("could not load the course materials from the document source"))
	case errors.Is(err, apperr.ErrSafetyBlocked):
		slog.Error("ask failed: reply blocked by safety filter", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("the model declined to answer because of its safety filters; try rephrasing the question"))
	case errors.Is(err, apperr.ErrEmptyReply):
		slog.Error("ask failed: empty model reply", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("the model returned an empty reply; please try again"))
	case errors.Is(err, apperr.ErrModelCall):
		slog.Error("ask failed: model call", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("the model request failed"))
	default:
		slog.Error("ask failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Knowledge handles GET /api/knowledge.
//
//	@Summary		Report the state of the in-memory knowledge document
//	@Tags			knowledge
//	@Produce		json
//	@Success		200	{object}	answer.Status
//	@Router			/knowledge [get]
func (h *Handler) Knowledge(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// RefreshKnowledge handles POST /api/knowledge/refresh.
//
//	@Summary		Discard the cached knowledge document and rebuild it
//	@Tags			knowledge
//	@Produce		json
//	@Success		200	{object}	answer.Status
//	@Failure		500	{object}	errResponse
//	@Router			/knowledge/refresh [post]
func (h *Handler) RefreshKnowledge(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Refresh(r.Context())
	if err != nil {
		slog.Error("knowledge refresh failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("refresh failed"))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// History handles GET /api/history.
//
//	@Summary		List recent question/answer exchanges
//	@Tags			history
//	@Produce		json
//	@Param			limit	query		int	false	"Max exchanges"
//	@Success		200		{object}	historyResponse
//	@Router			/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.hist == nil {
		writeJSON(w, http.StatusOK, historyResponse{Exchanges: []history.Exchange{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.hist.Recent(limit)
	if err != nil {
		slog.Error("history query failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Exchanges: items})
}
