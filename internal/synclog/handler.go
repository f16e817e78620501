package synclog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/het-labo/stixn-dewi/pkg/logging"
)

// Handler handles HTTP requests for the sync log
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new sync log handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// ListResponse is the response for listing sync log entries
type ListResponse struct {
	Entries []*Entry `json:"entries"`
	Count   int      `json:"count"`
	Limit   int      `json:"limit"`
}

// List handles GET /admin/sync-log?email=...&limit=... requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}

	entries, err := h.repo.ListByEmail(r.Context(), email, limit)
	if err != nil {
		if errors.Is(err, ErrMissingEmail) {
			http.Error(w, "missing email", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to list sync log", "error", err)
		http.Error(w, "failed to list sync log", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{
		Entries: entries,
		Count:   len(entries),
		Limit:   limit,
	})
}
