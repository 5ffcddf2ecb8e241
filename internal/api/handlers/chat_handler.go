package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	middleware "github.com/studyowl/studyowl/internal/api/middlewares"
	"github.com/studyowl/studyowl/internal/chat"
	"github.com/studyowl/studyowl/internal/core"
)

type ChatHandler struct {
	sessions *chat.SessionStore
	dbclient core.DbClient
}

func NewChatHandler(sessions *chat.SessionStore, dbclient core.DbClient) *ChatHandler {
	return &ChatHandler{sessions: sessions, dbclient: dbclient}
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer  string        `json:"answer"`
	Sources []chat.Source `json:"sources"`
	Turns   int           `json:"turns"`
}

// Ask answers one question in the caller's session. Follow-up questions in
// the same session see the earlier exchanges.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		http.Error(w, "question required", http.StatusBadRequest)
		return
	}

	eng := h.sessions.Get(userID, middleware.Role(r))
	answer, sources, err := eng.Ask(r.Context(), req.Question)
	if err != nil {
		http.Error(w, askErrorMessage(err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(askResponse{Answer: answer, Sources: sources, Turns: len(eng.History())})
}

// EndSession discards the caller's conversation history.
func (h *ChatHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	h.sessions.End(userID)
	w.WriteHeader(http.StatusNoContent)
}

// ListLogs returns the most recent audited exchanges, newest first.
func (h *ChatHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	logs, err := h.dbclient.ListChatLogs(r.Context(), limit)
	if err != nil {
		http.Error(w, "could not load chat logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logs)
}

func askErrorMessage(err error) string {
	var (
		ese *core.EmbeddingServiceError
		vse *core.VectorStoreError
		ge  *core.GenerationError
	)
	switch {
	case errors.As(err, &ese):
		return "embedding service unavailable"
	case errors.As(err, &vse):
		return "knowledge base unavailable"
	case errors.As(err, &ge):
		return "model unavailable"
	}
	return "chat failed"
}
