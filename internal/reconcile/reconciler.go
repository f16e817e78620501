// Package reconcile turns accumulated reservation form state into contact
// upserts, one per triggering form event.
package reconcile

import (
	"context"

	"github.com/het-labo/stixn-dewi/internal/contact"
	"github.com/het-labo/stixn-dewi/internal/draft"
	"github.com/het-labo/stixn-dewi/pkg/logging"
)

// Options tunes a Reconciler.
type Options struct {
	Fields contact.Fields
	// ClearOnFinal wipes the session after a successful final submission.
	ClearOnFinal bool
}

// Outcome describes what an event did. Err holds an upsert failure; the draft
// is left as it was so the next event retries.
type Outcome struct {
	Draft  contact.Draft
	Synced bool
	Result *Result
	Err    error
}

// Reconciler reacts to form events by updating the draft and, once an email
// and at least one activity are known, upserting the contact.
type Reconciler struct {
	acc    *draft.Accumulator
	up     Upserter
	opts   Options
	logger *logging.Logger
}

// New creates a Reconciler.
func New(acc *draft.Accumulator, up Upserter, logger *logging.Logger, opts Options) *Reconciler {
	if acc == nil || up == nil {
		panic("reconcile: accumulator and upserter are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Reconciler{acc: acc, up: up, opts: opts, logger: logger}
}

// Upsert builds the canonical payload from d and sends it. d must carry an email.
func (r *Reconciler) Upsert(ctx context.Context, d contact.Draft, finalize bool) (*Result, error) {
	props, err := contact.BuildProperties(d, finalize, r.opts.Fields)
	if err != nil {
		return nil, err
	}
	return r.up.Upsert(ctx, props)
}

// EmailBlur records the email and optional names, then syncs.
func (r *Reconciler) EmailBlur(ctx context.Context, email, first, last string) (Outcome, error) {
	if err := r.acc.RecordEmail(ctx, email); err != nil {
		return Outcome{}, err
	}
	if err := r.acc.RecordNames(ctx, first, last); err != nil {
		return Outcome{}, err
	}
	return r.sync(ctx, "email", false)
}

// CheckboxChange re-derives the filter selections from snap, then syncs.
func (r *Reconciler) CheckboxChange(ctx context.Context, snap draft.FormSnapshot) (Outcome, error) {
	if _, err := r.acc.RecordFilterSelection(ctx, snap); err != nil {
		return Outcome{}, err
	}
	return r.sync(ctx, "filters", false)
}

// ActivityClick adds a click selection. A repeated click changes nothing and
// does not sync.
func (r *Reconciler) ActivityClick(ctx context.Context, label string) (Outcome, error) {
	added, err := r.acc.RecordActivityClick(ctx, label)
	if err != nil {
		return Outcome{}, err
	}
	if !added {
		d, err := r.acc.Draft(ctx)
		return Outcome{Draft: d}, err
	}
	return r.sync(ctx, "activity", false)
}

// Submit handles a step submission; only the final step (next == false) marks
// the reservation completed.
func (r *Reconciler) Submit(ctx context.Context, next bool) (Outcome, error) {
	return r.sync(ctx, "submit", !next)
}

// PaymentStep marks the reservation completed and syncs.
func (r *Reconciler) PaymentStep(ctx context.Context) (Outcome, error) {
	return r.sync(ctx, "payment", true)
}

// sync upserts the draft when it passes the email and activity gate. A skipped
// event leaves the completion flag untouched.
func (r *Reconciler) sync(ctx context.Context, event string, final bool) (Outcome, error) {
	d, err := r.acc.Draft(ctx)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Draft: d}
	if !d.HasEmail() || len(d.Activities) == 0 {
		r.logger.Debug("skipping contact sync", "event", event, "has_email", d.HasEmail(), "activities", len(d.Activities))
		return out, nil
	}

	finalized, err := r.acc.SetFinalized(ctx, final)
	if err != nil {
		return out, err
	}
	d.Finalized = finalized
	out.Draft = d

	res, err := r.Upsert(ctx, d, finalized)
	if err != nil {
		r.logger.Error("contact sync failed", "event", event, "email", d.Email, "error", err)
		out.Err = err
		return out, nil
	}
	out.Synced = true
	out.Result = res
	r.logger.Info("contact synced", "event", event, "contact_id", res.ContactID, "finalized", finalized)

	if final && finalized && r.opts.ClearOnFinal {
		if err := r.acc.ClearAll(ctx); err != nil {
			return out, err
		}
		if out.Draft, err = r.acc.Draft(ctx); err != nil {
			return out, err
		}
	}
	return out, nil
}
