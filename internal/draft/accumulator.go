package draft

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/het-labo/stixn-dewi/internal/contact"
	"github.com/het-labo/stixn-dewi/pkg/logging"
)

// DefaultTTL is the fixed lifetime of a session draft, counted from first use.
const DefaultTTL = 60 * time.Second

// Options tunes an Accumulator.
type Options struct {
	// TTL is the fixed lifetime from the first Init. Zero disables expiry.
	TTL            time.Duration
	DedupKey       contact.DedupKey
	FinalizePolicy contact.FinalizePolicy
	Now            func() time.Time
}

// Accumulator owns one session's ContactDraft. Reconciliation code reads and
// writes the draft only through it, never through the Store.
type Accumulator struct {
	store  Store
	opts   Options
	logger *logging.Logger
}

// New creates an Accumulator over store.
func New(store Store, logger *logging.Logger, opts Options) *Accumulator {
	if store == nil {
		panic("draft: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.DedupKey == "" {
		opts.DedupKey = contact.DedupByNameAndSource
	}
	if opts.FinalizePolicy == "" {
		opts.FinalizePolicy = contact.FinalizeMonotonic
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Accumulator{store: store, opts: opts, logger: logger}
}

// Init applies the expiry policy and must run before anything is read on a
// page load. A past expiry clears the whole session first. When no expiry is
// stored one is set TTL into the future; an existing expiry is never moved.
func (a *Accumulator) Init(ctx context.Context) (expired bool, err error) {
	if a.opts.TTL <= 0 {
		return false, nil
	}
	now := a.opts.Now()

	raw, ok, err := a.store.Get(ctx, KeyExpiry)
	if err != nil {
		return false, err
	}
	if ok {
		expiry, parseErr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if parseErr != nil || now.UnixMilli() > expiry {
			if err := a.store.Clear(ctx); err != nil {
				return false, err
			}
			expired = true
			ok = false
		}
	}
	if !ok {
		expireAt := now.Add(a.opts.TTL).UnixMilli()
		if err := a.store.Set(ctx, KeyExpiry, strconv.FormatInt(expireAt, 10)); err != nil {
			return expired, err
		}
	}
	return expired, nil
}

// RecordEmail persists the session's email.
func (a *Accumulator) RecordEmail(ctx context.Context, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return contact.ErrMissingEmail
	}
	return a.store.Set(ctx, KeyEmail, value)
}

// RecordNames mirrors the optional name fields; a blank value removes the key.
func (a *Accumulator) RecordNames(ctx context.Context, first, last string) error {
	for key, value := range map[string]string{KeyFirstName: first, KeyLastName: last} {
		value = strings.TrimSpace(value)
		var err error
		if value == "" {
			err = a.store.Delete(ctx, key)
		} else {
			err = a.store.Set(ctx, key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// RecordFilterSelection rebuilds the filter-sourced subset from the checked
// boxes in snap. Click-sourced entries are kept as they are.
func (a *Accumulator) RecordFilterSelection(ctx context.Context, snap FormSnapshot) ([]contact.SelectionEntry, error) {
	current, err := a.activities(ctx)
	if err != nil {
		return nil, err
	}
	clicks := make([]contact.SelectionEntry, 0, len(current))
	for _, e := range current {
		if e.Source == contact.SourceClick {
			clicks = append(clicks, e)
		}
	}

	var filters []contact.SelectionEntry
	if snap != nil {
		for _, cb := range snap.Checkboxes() {
			if !cb.Checked {
				continue
			}
			e, err := contact.NewSelection(cb.Label, contact.SourceFilter)
			if err != nil {
				continue
			}
			if a.opts.DedupKey.Contains(filters, e) || a.opts.DedupKey.Contains(clicks, e) {
				continue
			}
			filters = append(filters, e)
		}
	}

	next := append(filters, clicks...)
	if err := a.saveActivities(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// RecordActivityClick appends a click-sourced entry unless an equal one is
// already stored. It reports whether anything was added.
func (a *Accumulator) RecordActivityClick(ctx context.Context, label string) (bool, error) {
	e, err := contact.NewSelection(label, contact.SourceClick)
	if err != nil {
		return false, err
	}
	current, err := a.activities(ctx)
	if err != nil {
		return false, err
	}
	if a.opts.DedupKey.Contains(current, e) {
		return false, nil
	}
	return true, a.saveActivities(ctx, append(current, e))
}

// SetFinalized combines final with the stored completion flag under the
// configured policy and returns the flag now in effect.
func (a *Accumulator) SetFinalized(ctx context.Context, final bool) (bool, error) {
	raw, _, err := a.store.Get(ctx, KeyFinalized)
	if err != nil {
		return false, err
	}
	current, _ := strconv.ParseBool(raw)
	next := a.opts.FinalizePolicy.Apply(current, final)
	if err := a.store.Set(ctx, KeyFinalized, strconv.FormatBool(next)); err != nil {
		return false, err
	}
	return next, nil
}

// ClearAll removes every persisted key of the session.
func (a *Accumulator) ClearAll(ctx context.Context) error {
	return a.store.Clear(ctx)
}

// Draft reads the current ContactDraft.
func (a *Accumulator) Draft(ctx context.Context) (contact.Draft, error) {
	var d contact.Draft
	var err error

	if d.Email, _, err = a.store.Get(ctx, KeyEmail); err != nil {
		return d, err
	}
	if d.FirstName, _, err = a.store.Get(ctx, KeyFirstName); err != nil {
		return d, err
	}
	if d.LastName, _, err = a.store.Get(ctx, KeyLastName); err != nil {
		return d, err
	}
	raw, _, err := a.store.Get(ctx, KeyFinalized)
	if err != nil {
		return d, err
	}
	d.Finalized, _ = strconv.ParseBool(raw)

	if d.Activities, err = a.activities(ctx); err != nil {
		return d, err
	}
	if d.Activities == nil {
		d.Activities = []contact.SelectionEntry{}
	}
	return d, nil
}

func (a *Accumulator) activities(ctx context.Context) ([]contact.SelectionEntry, error) {
	raw, ok, err := a.store.Get(ctx, KeyActivities)
	if err != nil || !ok {
		return nil, err
	}
	entries, rejected, err := decodeSelections(raw)
	if err != nil {
		// A corrupt list reads as empty.
		a.logger.Warn("discarding unreadable activity list", "error", err)
		return nil, nil
	}
	for _, r := range rejected {
		a.logger.Warn("dropping unrecognized activity record", "error", r)
	}
	return entries, nil
}

func (a *Accumulator) saveActivities(ctx context.Context, entries []contact.SelectionEntry) error {
	encoded, err := encodeSelections(entries)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, KeyActivities, encoded)
}
