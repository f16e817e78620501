package proxy

import (
	"errors"
	"io"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/het-labo/stixn-dewi/internal/contact"
	"github.com/het-labo/stixn-dewi/internal/draft"
	"github.com/het-labo/stixn-dewi/internal/observability/metrics"
	"github.com/het-labo/stixn-dewi/internal/reconcile"
	"github.com/het-labo/stixn-dewi/pkg/logging"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// SessionConfig wires a SessionHandler.
type SessionConfig struct {
	Sessions  draft.Sessions
	Upserter  reconcile.Upserter
	Draft     draft.Options
	Reconcile reconcile.Options
	Metrics   *metrics.UpsertMetrics
	Logger    *logging.Logger
}

// SessionHandler runs the draft accumulator and the reconciler on behalf of a
// page script that reports its form events.
type SessionHandler struct {
	cfg    SessionConfig
	logger *logging.Logger
}

// NewSessionHandler creates the session event API.
func NewSessionHandler(cfg SessionConfig) *SessionHandler {
	if cfg.Sessions == nil || cfg.Upserter == nil {
		panic("proxy: sessions and upserter are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &SessionHandler{cfg: cfg, logger: cfg.Logger}
}

// Routes mounts the session endpoints on r.
func (h *SessionHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/email", h.Email)
		r.Post("/filters", h.Filters)
		r.Post("/activities", h.Activity)
		r.Post("/submit", h.Submit)
		r.Post("/payment", h.Payment)
	})
}

type sessionResponse struct {
	SessionID string        `json:"session_id"`
	Draft     contact.Draft `json:"draft"`
	Expired   bool          `json:"expired,omitempty"`
	Synced    bool          `json:"synced"`
	ContactID string        `json:"contact_id,omitempty"`
	Error     *syncError    `json:"error,omitempty"`
}

type syncError struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

type session struct {
	id      string
	acc     *draft.Accumulator
	rec     *reconcile.Reconciler
	expired bool
}

// open validates the session id and applies the expiry policy before
// anything is read.
func (h *SessionHandler) open(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := chi.URLParam(r, "sessionID")
	if !sessionIDPattern.MatchString(id) {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}
	logger := h.logger.With("session_id", id)
	acc := draft.New(h.cfg.Sessions.Session(id), logger, h.cfg.Draft)
	expired, err := acc.Init(r.Context())
	if err != nil {
		logger.Error("failed to initialize session", "error", err)
		writeError(w, http.StatusInternalServerError, "session store unavailable")
		return nil, false
	}
	if expired {
		logger.Info("session expired, state cleared")
	}
	return &session{
		id:      id,
		acc:     acc,
		rec:     reconcile.New(acc, h.cfg.Upserter, logger, h.cfg.Reconcile),
		expired: expired,
	}, true
}

// Create hands out a new session id.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": uuid.NewString()})
}

// Get returns the current draft.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	d, err := s.acc.Draft(r.Context())
	if err != nil {
		h.fail(w, s, "read", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: s.id, Draft: d, Expired: s.expired})
}

// Clear drops all state of the session.
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	if err := s.acc.ClearAll(r.Context()); err != nil {
		h.fail(w, s, "clear", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type emailRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// Email handles the email field losing focus.
func (h *SessionHandler) Email(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	out, err := s.rec.EmailBlur(r.Context(), req.Email, req.FirstName, req.LastName)
	h.respond(w, s, "email", out, err)
}

type filtersRequest struct {
	Checkboxes []draft.Checkbox `json:"checkboxes"`
}

// Filters handles a filter checkbox change; the body carries every checkbox
// in document order.
func (h *SessionHandler) Filters(w http.ResponseWriter, r *http.Request) {
	var req filtersRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	out, err := s.rec.CheckboxChange(r.Context(), draft.StaticSnapshot(req.Checkboxes))
	h.respond(w, s, "filters", out, err)
}

type activityRequest struct {
	Label string `json:"label"`
}

// Activity handles a click on an activity's add control.
func (h *SessionHandler) Activity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	out, err := s.rec.ActivityClick(r.Context(), req.Label)
	h.respond(w, s, "activity", out, err)
}

type submitRequest struct {
	Next bool `json:"next"`
}

// Submit handles a step submission. An empty body is the final step.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	out, err := s.rec.Submit(r.Context(), req.Next)
	h.respond(w, s, "submit", out, err)
}

// Payment handles arrival on the payment step.
func (h *SessionHandler) Payment(w http.ResponseWriter, r *http.Request) {
	s, ok := h.open(w, r)
	if !ok {
		return
	}
	out, err := s.rec.PaymentStep(r.Context())
	h.respond(w, s, "payment", out, err)
}

func (h *SessionHandler) respond(w http.ResponseWriter, s *session, event string, out reconcile.Outcome, err error) {
	if err != nil {
		h.fail(w, s, event, err)
		return
	}
	h.cfg.Metrics.ObserveFormEvent(event, out.Synced)

	resp := sessionResponse{
		SessionID: s.id,
		Draft:     out.Draft,
		Expired:   s.expired,
		Synced:    out.Synced,
	}
	if out.Result != nil {
		resp.ContactID = out.Result.ContactID
	}
	if out.Err != nil {
		resp.Error = &syncError{Message: out.Err.Error()}
		var uf *reconcile.UpsertFailed
		if errors.As(out.Err, &uf) {
			resp.Error.Status = uf.Status
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) fail(w http.ResponseWriter, s *session, event string, err error) {
	switch {
	case errors.Is(err, contact.ErrMissingEmail), errors.Is(err, contact.ErrEmptyActivity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("session event failed", "session_id", s.id, "event", event, "error", err)
		writeError(w, http.StatusInternalServerError, "session store unavailable")
	}
}
