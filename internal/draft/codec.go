package draft

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/het-labo/stixn-dewi/internal/contact"
)

// storedSelection accepts every record shape the reservation pages have
// written: {name, source}, {name, type: "filter"|"activity"} and the activity
// card variant {id, name}.
type storedSelection struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Name   string          `json:"name"`
	Type   string          `json:"type,omitempty"`
	Source string          `json:"source,omitempty"`
}

func (s storedSelection) normalize() (contact.SelectionEntry, error) {
	var source contact.Source
	switch {
	case s.Source != "":
		source = contact.Source(strings.ToLower(s.Source))
	case strings.EqualFold(s.Type, "filter"):
		source = contact.SourceFilter
	case strings.EqualFold(s.Type, "activity"), strings.EqualFold(s.Type, "click"):
		source = contact.SourceClick
	case s.Type == "" && len(s.ID) > 0:
		source = contact.SourceClick
	default:
		return contact.SelectionEntry{}, fmt.Errorf("%w: type %q", contact.ErrUnknownSource, s.Type)
	}
	return contact.NewSelection(s.Name, source)
}

// decodeSelections parses the persisted list. Records that cannot be
// normalized are returned separately so the caller can log them.
func decodeSelections(raw string) ([]contact.SelectionEntry, []error, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, nil
	}
	var records []storedSelection
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, nil, fmt.Errorf("draft: decode %s: %w", KeyActivities, err)
	}

	entries := make([]contact.SelectionEntry, 0, len(records))
	var rejected []error
	for _, rec := range records {
		e, err := rec.normalize()
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, rejected, nil
}

func encodeSelections(entries []contact.SelectionEntry) (string, error) {
	if entries == nil {
		entries = []contact.SelectionEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("draft: encode %s: %w", KeyActivities, err)
	}
	return string(data), nil
}
