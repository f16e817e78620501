package proxy

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/het-labo/stixn-dewi/internal/contact"
	"github.com/het-labo/stixn-dewi/internal/hubspot"
	"github.com/het-labo/stixn-dewi/internal/reconcile"
)

// LocalUpserter lets the session API reconcile in-process instead of calling
// the contact endpoint over HTTP. Failures look the same as over the wire.
type LocalUpserter struct {
	svc ContactUpserter
}

// NewLocalUpserter wraps svc.
func NewLocalUpserter(svc ContactUpserter) *LocalUpserter {
	return &LocalUpserter{svc: svc}
}

// Upsert implements reconcile.Upserter.
func (l *LocalUpserter) Upsert(ctx context.Context, props contact.Properties) (*reconcile.Result, error) {
	res, err := l.svc.Upsert(ctx, props)
	if err != nil {
		var apiErr *hubspot.APIError
		if errors.As(err, &apiErr) {
			return nil, &reconcile.UpsertFailed{Status: apiErr.Status, Body: apiErr.Body, Err: err}
		}
		return nil, &reconcile.UpsertFailed{Err: err}
	}

	var out reconcile.Result
	if err := json.Unmarshal(res.Body, &out); err != nil {
		return nil, &reconcile.UpsertFailed{Status: res.Status, Body: res.Body, Err: err}
	}
	if out.ContactID == "" {
		out.ContactID = res.ContactID
	}
	return &out, nil
}
