package synclog

import (
	"strings"
	"time"
)

// Action records what an upsert attempt did at the CRM.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionFailed  Action = "failed"
)

// Entry is one proxy upsert attempt.
type Entry struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Action         Action    `json:"action"`
	ContactID      string    `json:"contact_id,omitempty"`
	UpstreamStatus int       `json:"upstream_status"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Validate checks the entry before it is stored
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Email) == "" {
		return ErrMissingEmail
	}
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionFailed:
	default:
		return ErrInvalidAction
	}
	return nil
}
