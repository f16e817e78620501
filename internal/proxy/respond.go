// Package proxy exposes the HTTP endpoints the reservation pages call: the
// contact upsert proxy, the direct save-user integration and the session
// event API.
package proxy

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/het-labo/stixn-dewi/internal/hubspot"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error   string          `json:"error"`
	Status  int             `json:"status,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// upstreamDetails returns the CRM's error body when it is JSON, or the body
// as a JSON string otherwise.
func upstreamDetails(err error) (int, json.RawMessage) {
	var apiErr *hubspot.APIError
	if !errors.As(err, &apiErr) {
		return 0, nil
	}
	if len(apiErr.Body) > 0 && json.Valid(apiErr.Body) {
		return apiErr.Status, json.RawMessage(apiErr.Body)
	}
	raw, _ := json.Marshal(string(apiErr.Body))
	return apiErr.Status, raw
}
