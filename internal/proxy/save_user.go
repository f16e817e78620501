package proxy

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/het-labo/stixn-dewi/internal/contact"
	"github.com/het-labo/stixn-dewi/internal/dewi"
	"github.com/het-labo/stixn-dewi/internal/hubspot"
	"github.com/het-labo/stixn-dewi/internal/upsert"
	"github.com/het-labo/stixn-dewi/pkg/logging"
)

// Property names written by the direct save-user integration.
const (
	SaveUserActivityProperty   = "chosen_activities"
	SaveUserCompletionProperty = "reservation_completed"
)

// ActivityCatalogue lists a club's bookable activities.
type ActivityCatalogue interface {
	Activities(ctx context.Context, clubID int) ([]dewi.Activity, error)
}

// SaveUserHandler serves POST /hubspot/save-user: it stores a guest as a
// contact with the club's activity catalogue attached. It expects a
// create-first upserter.
type SaveUserHandler struct {
	catalogue ActivityCatalogue
	svc       ContactUpserter
	clubID    int
	logger    *logging.Logger
}

// NewSaveUserHandler creates the handler. clubID <= 0 selects dewi.DefaultClubID.
func NewSaveUserHandler(catalogue ActivityCatalogue, svc ContactUpserter, clubID int, logger *logging.Logger) *SaveUserHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if clubID <= 0 {
		clubID = dewi.DefaultClubID
	}
	return &SaveUserHandler{catalogue: catalogue, svc: svc, clubID: clubID, logger: logger}
}

type saveUserRequest struct {
	Name                 string `json:"name"`
	LastName             string `json:"lastname"`
	Email                string `json:"email"`
	ReservationCompleted bool   `json:"reservation_completed"`
}

type saveUserResponse struct {
	Status    string `json:"status"`
	ContactID string `json:"contact_id"`
}

// Save handles the request.
func (h *SaveUserHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveUserRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields.")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.LastName == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields.")
		return
	}

	activities, err := h.catalogue.Activities(r.Context(), h.clubID)
	if err != nil {
		h.logger.Error("failed to load activity catalogue", "club_id", h.clubID, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	props := contact.Properties{
		contact.PropertyFirstName:  req.Name,
		contact.PropertyLastName:   req.LastName,
		contact.PropertyEmail:      req.Email,
		SaveUserActivityProperty:   strings.Join(dewi.ActivityNames(activities), ", "),
		SaveUserCompletionProperty: strconv.FormatBool(req.ReservationCompleted),
	}

	res, err := h.svc.Upsert(r.Context(), props)
	if err != nil {
		var apiErr *hubspot.APIError
		switch {
		case errors.Is(err, upsert.ErrContactNotFound):
			writeError(w, http.StatusNotFound, "Contact not found for update.")
		case errors.As(err, &apiErr) && apiErr.Status >= 400:
			writeError(w, apiErr.Status, apiErr.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	switch res.Action {
	case upsert.ActionCreated:
		writeJSON(w, http.StatusCreated, saveUserResponse{Status: "created", ContactID: res.ContactID})
	default:
		writeJSON(w, http.StatusOK, saveUserResponse{Status: "updated", ContactID: res.ContactID})
	}
}
