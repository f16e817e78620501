// Package upsert turns the CRM's separate create and update calls into one
// create-or-update by email.
package upsert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/het-labo/stixn-dewi/internal/contact"
	"github.com/het-labo/stixn-dewi/internal/hubspot"
	"github.com/het-labo/stixn-dewi/internal/observability/metrics"
	"github.com/het-labo/stixn-dewi/internal/synclog"
	"github.com/het-labo/stixn-dewi/pkg/logging"
)

// ErrContactNotFound is returned when a create conflicted but no existing
// record could be located to update.
var ErrContactNotFound = errors.New("upsert: contact not found for update")

// Strategy is the order in which the CRM is asked.
type Strategy string

const (
	// SearchFirst searches by email, patches on a hit, creates on a miss and
	// falls back to a patch when the create reports an existing record.
	SearchFirst Strategy = "search_first"
	// CreateFirst creates, and on a conflict patches the existing record.
	CreateFirst Strategy = "create_first"
)

// ParseStrategy maps a configuration value to a Strategy. Empty selects SearchFirst.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SearchFirst:
		return SearchFirst, nil
	case CreateFirst:
		return CreateFirst, nil
	default:
		return "", fmt.Errorf("upsert: unknown strategy %q", s)
	}
}

// Directory is the remote contact directory.
type Directory interface {
	SearchByEmail(ctx context.Context, email string) (*hubspot.SearchResult, error)
	Create(ctx context.Context, properties map[string]any) (*hubspot.Response, error)
	Update(ctx context.Context, id string, properties map[string]any) (*hubspot.Response, error)
}

// Action is what the upsert did.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Result carries the upstream response verbatim along with what happened.
type Result struct {
	Action    Action
	ContactID string
	Status    int
	Body      json.RawMessage
}

// Service performs upserts against a Directory.
type Service struct {
	dir      Directory
	strategy Strategy
	log      synclog.Repository
	metrics  *metrics.UpsertMetrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithStrategy selects the call order.
func WithStrategy(s Strategy) Option {
	return func(svc *Service) {
		if s != "" {
			svc.strategy = s
		}
	}
}

// WithSyncLog records every attempt in repo.
func WithSyncLog(repo synclog.Repository) Option {
	return func(svc *Service) { svc.log = repo }
}

// WithMetrics reports upserts and upstream latency to m.
func WithMetrics(m *metrics.UpsertMetrics) Option {
	return func(svc *Service) { svc.metrics = m }
}

// NewService creates an upsert service.
func NewService(dir Directory, logger *logging.Logger, opts ...Option) *Service {
	if dir == nil {
		panic("upsert: directory cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		dir:      dir,
		strategy: SearchFirst,
		logger:   logger,
		tracer:   otel.Tracer("stixn.internal.upsert"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategy returns the call order in effect.
func (s *Service) Strategy() Strategy {
	return s.strategy
}

// Upsert creates or updates the contact keyed by props' email.
func (s *Service) Upsert(ctx context.Context, props contact.Properties) (*Result, error) {
	email := props.Email()
	if email == "" {
		return nil, contact.ErrMissingEmail
	}

	ctx, span := s.tracer.Start(ctx, "upsert.contact", trace.WithAttributes(
		attribute.String("upsert.strategy", string(s.strategy)),
	))
	defer span.End()

	var res *Result
	var err error
	switch s.strategy {
	case CreateFirst:
		res, err = s.createFirst(ctx, email, props)
	default:
		res, err = s.searchFirst(ctx, email, props)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("contact upsert failed", "email", email, "strategy", s.strategy, "error", err)
		s.metrics.ObserveUpsert("none", "error")
	} else {
		span.SetAttributes(attribute.String("upsert.action", string(res.Action)))
		s.logger.Info("contact upserted", "email", email, "action", res.Action, "contact_id", res.ContactID)
		s.metrics.ObserveUpsert(string(res.Action), "ok")
	}
	s.record(ctx, email, res, err)
	return res, err
}

func (s *Service) searchFirst(ctx context.Context, email string, props contact.Properties) (*Result, error) {
	found, err := s.search(ctx, email)
	if err != nil {
		return nil, err
	}
	if id := found.FirstID(); id != "" {
		s.logger.Debug("found existing contact", "contact_id", id)
		return s.update(ctx, id, props)
	}

	res, err := s.create(ctx, props)
	if err == nil {
		return res, nil
	}
	var apiErr *hubspot.APIError
	if errors.As(err, &apiErr) && apiErr.IsConflict() {
		if id, ok := apiErr.ExistingID(); ok {
			s.logger.Info("contact appeared between search and create, updating it", "contact_id", id)
			return s.update(ctx, id, props)
		}
	}
	return nil, err
}

func (s *Service) createFirst(ctx context.Context, email string, props contact.Properties) (*Result, error) {
	res, err := s.create(ctx, props)
	if err == nil {
		return res, nil
	}
	var apiErr *hubspot.APIError
	if !errors.As(err, &apiErr) || !apiErr.IsConflict() {
		return nil, err
	}

	id, ok := apiErr.ExistingID()
	if !ok {
		found, searchErr := s.search(ctx, email)
		if searchErr != nil {
			return nil, searchErr
		}
		if id = found.FirstID(); id == "" {
			return nil, ErrContactNotFound
		}
	}
	return s.update(ctx, id, props)
}

func (s *Service) search(ctx context.Context, email string) (*hubspot.SearchResult, error) {
	start := time.Now()
	found, err := s.dir.SearchByEmail(ctx, email)
	s.metrics.ObserveUpstream("search", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("upsert: search: %w", err)
	}
	return found, nil
}

func (s *Service) create(ctx context.Context, props contact.Properties) (*Result, error) {
	start := time.Now()
	resp, err := s.dir.Create(ctx, props)
	s.metrics.ObserveUpstream("create", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("upsert: create: %w", err)
	}
	return newResult(ActionCreated, resp, ""), nil
}

func (s *Service) update(ctx context.Context, id string, props contact.Properties) (*Result, error) {
	start := time.Now()
	resp, err := s.dir.Update(ctx, id, props)
	s.metrics.ObserveUpstream("update", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("upsert: update %s: %w", id, err)
	}
	return newResult(ActionUpdated, resp, id), nil
}

func newResult(action Action, resp *hubspot.Response, fallbackID string) *Result {
	id := resp.ContactID()
	if id == "" {
		id = fallbackID
	}
	return &Result{Action: action, ContactID: id, Status: resp.Status, Body: resp.Body}
}

func (s *Service) record(ctx context.Context, email string, res *Result, upsertErr error) {
	if s.log == nil {
		return
	}
	entry := &synclog.Entry{Email: email}
	if upsertErr != nil {
		entry.Action = synclog.ActionFailed
		entry.Error = upsertErr.Error()
		var apiErr *hubspot.APIError
		if errors.As(upsertErr, &apiErr) {
			entry.UpstreamStatus = apiErr.Status
		}
	} else {
		entry.Action = synclog.Action(res.Action)
		entry.ContactID = res.ContactID
		entry.UpstreamStatus = res.Status
	}
	if err := s.log.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record sync log entry", "email", email, "error", err)
	}
}
