package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewClient("secret", nil, WithBaseURL(ts.URL))
}

func TestSearchByEmailSendsEqualityFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/crm/v3/objects/contacts/search" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected auth header %q", got)
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		f := req.FilterGroups[0].Filters[0]
		if f.PropertyName != "email" || f.Operator != "EQ" || f.Value != "jane@example.com" {
			t.Fatalf("unexpected filter %+v", f)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"total": 1, "results": []map[string]any{{"id": "42"}}})
	})

	res, err := c.SearchByEmail(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("SearchByEmail error: %v", err)
	}
	if res.FirstID() != "42" {
		t.Fatalf("expected id 42, got %q", res.FirstID())
	}
}

func TestUpdateReturnsRawBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/crm/v3/objects/contacts/42" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var env propertiesEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Properties["email"] != "jane@example.com" {
			t.Fatalf("unexpected properties %+v", env.Properties)
		}
		w.Write([]byte(`{"id":"42","properties":{"email":"jane@example.com"}}`))
	})

	resp, err := c.Update(context.Background(), "42", map[string]any{"email": "jane@example.com"})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if string(resp.Body) != `{"id":"42","properties":{"email":"jane@example.com"}}` {
		t.Fatalf("body not passed through: %s", resp.Body)
	}
	if resp.ContactID() != "42" {
		t.Fatalf("expected contact id 42, got %q", resp.ContactID())
	}
}

func TestCreateConflictExposesExistingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"status":"error","message":"Contact already exists. Existing ID: 99","category":"CONFLICT"}`))
	})

	_, err := c.Create(context.Background(), map[string]any{"email": "jane@example.com"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.IsConflict() {
		t.Fatalf("expected conflict")
	}
	id, ok := apiErr.ExistingID()
	if !ok || id != "99" {
		t.Fatalf("expected existing id 99, got %q %v", id, ok)
	}
}

func TestNonJSONSuccessIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	})

	_, err := c.Create(context.Background(), map[string]any{"email": "jane@example.com"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusOK || apiErr.Message != "invalid JSON response" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestServerErrorIsNotConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})

	_, err := c.SearchByEmail(context.Background(), "jane@example.com")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.IsConflict() {
		t.Fatalf("500 must not be treated as conflict")
	}
	if apiErr.Message != "boom" {
		t.Fatalf("expected parsed message, got %q", apiErr.Message)
	}
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient("", nil)
	if _, err := c.SearchByEmail(context.Background(), "jane@example.com"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestUpdateRequiresID(t *testing.T) {
	c := NewClient("secret", nil)
	if _, err := c.Update(context.Background(), " ", nil); err == nil {
		t.Fatal("expected error for empty id")
	}
}
