// Package contact holds the reservation contact model shared by the draft
// accumulator, the reconciler and the CRM proxy.
package contact

import (
	"fmt"
	"strings"
)

// Source identifies how an activity was chosen on the reservation form.
type Source string

const (
	// SourceFilter is a persistent checkbox filter.
	SourceFilter Source = "filter"
	// SourceClick is a one-click "add activity" action.
	SourceClick Source = "click"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	return s == SourceFilter || s == SourceClick
}

// SelectionEntry is one chosen activity.
type SelectionEntry struct {
	Name   string `json:"name"`
	Source Source `json:"source"`
}

// NewSelection trims name and validates both fields.
func NewSelection(name string, source Source) (SelectionEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SelectionEntry{}, ErrEmptyActivity
	}
	if !source.Valid() {
		return SelectionEntry{}, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return SelectionEntry{Name: name, Source: source}, nil
}

// Draft is the accumulated, not yet submitted state of one contact.
type Draft struct {
	Email      string           `json:"email,omitempty"`
	FirstName  string           `json:"firstname,omitempty"`
	LastName   string           `json:"lastname,omitempty"`
	Activities []SelectionEntry `json:"activities"`
	Finalized  bool             `json:"finalized"`
}

// HasEmail reports whether the draft carries a usable reconciliation key.
func (d Draft) HasEmail() bool {
	return strings.TrimSpace(d.Email) != ""
}

// BySource returns the entries with the given source, preserving order.
func (d Draft) BySource(source Source) []SelectionEntry {
	out := make([]SelectionEntry, 0, len(d.Activities))
	for _, a := range d.Activities {
		if a.Source == source {
			out = append(out, a)
		}
	}
	return out
}
