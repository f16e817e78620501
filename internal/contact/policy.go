package contact

import (
	"fmt"
	"strings"
)

// DedupKey selects what makes two activity selections "the same".
type DedupKey string

const (
	// DedupByNameAndSource treats "Yoga" from a filter and "Yoga" from a click
	// as different selections.
	DedupByNameAndSource DedupKey = "name_source"
	// DedupByName collapses selections with equal names regardless of source.
	DedupByName DedupKey = "name"
)

// ParseDedupKey maps a configuration value to a DedupKey. Empty selects the
// default (name_source).
func ParseDedupKey(s string) (DedupKey, error) {
	switch DedupKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", DedupByNameAndSource:
		return DedupByNameAndSource, nil
	case DedupByName:
		return DedupByName, nil
	default:
		return "", fmt.Errorf("contact: unknown dedup key %q", s)
	}
}

// Same reports whether a and b collide under k.
func (k DedupKey) Same(a, b SelectionEntry) bool {
	if strings.TrimSpace(a.Name) != strings.TrimSpace(b.Name) {
		return false
	}
	if k == DedupByName {
		return true
	}
	return a.Source == b.Source
}

// Contains reports whether entries already hold something equal to e under k.
func (k DedupKey) Contains(entries []SelectionEntry, e SelectionEntry) bool {
	for _, existing := range entries {
		if k.Same(existing, e) {
			return true
		}
	}
	return false
}

// FinalizePolicy decides how a new completion flag combines with the stored one.
type FinalizePolicy string

const (
	// FinalizeMonotonic keeps the flag true once any event set it.
	FinalizeMonotonic FinalizePolicy = "monotonic"
	// FinalizeLastWrite lets the latest event win, so a later "next" click can
	// turn a finished reservation back into an unfinished one.
	FinalizeLastWrite FinalizePolicy = "last_write"
)

// ParseFinalizePolicy maps a configuration value to a FinalizePolicy. Empty
// selects monotonic.
func ParseFinalizePolicy(s string) (FinalizePolicy, error) {
	switch FinalizePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FinalizeMonotonic:
		return FinalizeMonotonic, nil
	case FinalizeLastWrite:
		return FinalizeLastWrite, nil
	default:
		return "", fmt.Errorf("contact: unknown finalize policy %q", s)
	}
}

// Apply returns the flag to store given the current one and the event's value.
func (p FinalizePolicy) Apply(current, next bool) bool {
	if p == FinalizeLastWrite {
		return next
	}
	return current || next
}
