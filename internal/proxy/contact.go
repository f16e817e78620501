package proxy

import (
	"context"
	"errors"
	"net/http"

	"github.com/het-labo/stixn-dewi/internal/contact"
	"github.com/het-labo/stixn-dewi/internal/hubspot"
	"github.com/het-labo/stixn-dewi/internal/upsert"
	"github.com/het-labo/stixn-dewi/pkg/logging"
)

// ContactUpserter is the proxy-side upsert policy.
type ContactUpserter interface {
	Upsert(ctx context.Context, props contact.Properties) (*upsert.Result, error)
}

// ContactHandler serves POST /api/hubspot/contact.
type ContactHandler struct {
	svc    ContactUpserter
	fields contact.Fields
	logger *logging.Logger
}

// NewContactHandler creates the contact proxy handler.
func NewContactHandler(svc ContactUpserter, fields contact.Fields, logger *logging.Logger) *ContactHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ContactHandler{svc: svc, fields: fields, logger: logger}
}

type contactRequest struct {
	Properties map[string]any `json:"properties"`
}

// Upsert forwards the allow-listed properties and relays the CRM's status and
// body unchanged.
func (h *ContactHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	props := contact.Sanitize(req.Properties, h.fields)
	if props.Email() == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	res, err := h.svc.Upsert(r.Context(), props)
	if err != nil {
		h.writeUpsertError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Status)
	_, _ = w.Write(res.Body)
}

func (h *ContactHandler) writeUpsertError(w http.ResponseWriter, err error) {
	var apiErr *hubspot.APIError
	switch {
	case errors.As(err, &apiErr):
		status, details := upstreamDetails(err)
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:   apiErr.Error(),
			Status:  status,
			Details: details,
		})
	case errors.Is(err, hubspot.ErrMissingAPIKey):
		h.logger.Error("contact proxy is not configured", "error", err)
		writeError(w, http.StatusServiceUnavailable, "contact directory not configured")
	case errors.Is(err, upsert.ErrContactNotFound):
		writeError(w, http.StatusNotFound, "contact not found for update")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
