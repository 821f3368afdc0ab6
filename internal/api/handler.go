// Package api provides the operator-facing HTTP handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mark4carter/codewarsbot/internal/bot"
	"github.com/mark4carter/codewarsbot/internal/store"
)

// Handler serves the bot status endpoint.
type Handler struct {
	repo     store.Repository
	sessions *bot.SessionManager
}

// NewHandler creates a Handler.
func NewHandler(repo store.Repository, sessions *bot.SessionManager) *Handler {
	return &Handler{repo: repo, sessions: sessions}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// RegisterRoutes mounts the status routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.Status)
}

// Status reports whether the installation is configured and the state of
// every live session.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	configured := true
	if _, err := h.repo.LoadSettings(r.Context()); err != nil {
		if !errors.Is(err, store.ErrNotConfigured) && !errors.Is(err, context.Canceled) {
			Error(w, http.StatusInternalServerError, "failed to read settings")
			return
		}
		configured = false
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"configured": configured,
		"sessions":   h.sessions.Snapshot(),
	})
}
