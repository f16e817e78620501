package dewi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestActivities(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/clubs/232/activities" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Fatalf("missing bearer token")
		}
		w.Write([]byte(`[{"id":1,"name":"Padel"},{"id":2,"name":" Yoga "},{"id":3,"name":""}]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "key", nil)
	activities, err := c.Activities(context.Background(), DefaultClubID)
	if err != nil {
		t.Fatalf("Activities error: %v", err)
	}
	if len(activities) != 3 || activities[0].ID.String() != "1" {
		t.Fatalf("unexpected activities: %+v", activities)
	}

	names := ActivityNames(activities)
	if strings.Join(names, ", ") != "Padel, Yoga" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestActivitiesErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "key", nil)
	if _, err := c.Activities(context.Background(), 7); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestActivitiesMissingKey(t *testing.T) {
	c := NewClient("", "", nil)
	if _, err := c.Activities(context.Background(), 1); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
