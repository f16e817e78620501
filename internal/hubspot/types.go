package hubspot

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Contact is a contact record as returned by the CRM.
type Contact struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties,omitempty"`
}

// SearchResult is the body of POST /crm/v3/objects/contacts/search.
type SearchResult struct {
	Total   int       `json:"total"`
	Results []Contact `json:"results"`
}

// FirstID returns the id of the first match, or "" when nothing matched.
func (r *SearchResult) FirstID() string {
	if r == nil || r.Total <= 0 || len(r.Results) == 0 {
		return ""
	}
	return r.Results[0].ID
}

// Response is a raw CRM response: the status and the JSON body, untouched.
type Response struct {
	Status int
	Body   json.RawMessage
}

// ContactID reads "id" from the response body.
func (r *Response) ContactID() string {
	if r == nil {
		return ""
	}
	var c Contact
	if err := json.Unmarshal(r.Body, &c); err != nil {
		return ""
	}
	return c.ID
}

type searchRequest struct {
	FilterGroups []filterGroup `json:"filterGroups"`
	Properties   []string      `json:"properties,omitempty"`
	Limit        int           `json:"limit,omitempty"`
}

type filterGroup struct {
	Filters []filter `json:"filters"`
}

type filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type propertiesEnvelope struct {
	Properties map[string]any `json:"properties"`
}

type errorBody struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

var existingIDPattern = regexp.MustCompile(`Existing ID:\s*(\d+)`)

// APIError is a non-2xx or unparseable CRM response.
type APIError struct {
	Op       string
	Status   int
	Body     []byte
	Message  string
	Category string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
	}
	return fmt.Sprintf("hubspot: %s: status %d: %s", e.Op, e.Status, msg)
}

// ExistingID extracts the id of the record that made a create fail, from
// messages like "Contact already exists. Existing ID: 99".
func (e *APIError) ExistingID() (string, bool) {
	for _, text := range []string{e.Message, string(e.Body)} {
		if m := existingIDPattern.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// IsConflict reports whether the CRM rejected the request because the record
// already exists.
func (e *APIError) IsConflict() bool {
	if e.Status == 409 || strings.EqualFold(e.Category, "CONFLICT") {
		return true
	}
	_, ok := e.ExistingID()
	return ok
}

func newAPIError(op string, status int, body []byte) *APIError {
	apiErr := &APIError{Op: op, Status: status, Body: body}
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Message = parsed.Message
		apiErr.Category = parsed.Category
	}
	return apiErr
}
