package bootstrap

import (
	"fmt"
	"strings"

	"github.com/het-labo/stixn-dewi/internal/contact"
	appconfig "github.com/het-labo/stixn-dewi/internal/config"
	"github.com/het-labo/stixn-dewi/internal/draft"
	"github.com/het-labo/stixn-dewi/internal/hubspot"
	"github.com/het-labo/stixn-dewi/internal/observability/metrics"
	"github.com/het-labo/stixn-dewi/internal/proxy"
	"github.com/het-labo/stixn-dewi/internal/reconcile"
	"github.com/het-labo/stixn-dewi/internal/synclog"
	"github.com/het-labo/stixn-dewi/internal/upsert"
	"github.com/het-labo/stixn-dewi/pkg/logging"
)

// Fields returns the configured CRM property names.
func Fields(cfg *appconfig.Config) contact.Fields {
	return contact.Fields{Activity: cfg.HubSpotActivityProperty, Completion: cfg.HubSpotCompletionProperty}
}

// BuildDraftOptions parses the draft policies from configuration.
func BuildDraftOptions(cfg *appconfig.Config) (draft.Options, error) {
	if cfg == nil {
		return draft.Options{}, fmt.Errorf("bootstrap: config is required")
	}
	key, err := contact.ParseDedupKey(cfg.DraftDedupKey)
	if err != nil {
		return draft.Options{}, fmt.Errorf("bootstrap: %w", err)
	}
	policy, err := contact.ParseFinalizePolicy(cfg.DraftFinalizePolicy)
	if err != nil {
		return draft.Options{}, fmt.Errorf("bootstrap: %w", err)
	}
	return draft.Options{TTL: cfg.DraftTTL, DedupKey: key, FinalizePolicy: policy}, nil
}

// BuildUpsertService wires the CRM client into an upsert service. An empty
// strategy uses the configured one.
func BuildUpsertService(cfg *appconfig.Config, strategy upsert.Strategy, m *metrics.UpsertMetrics, log synclog.Repository, logger *logging.Logger) (*upsert.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strategy == "" {
		parsed, err := upsert.ParseStrategy(cfg.UpsertStrategy)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		strategy = parsed
	}
	if strings.TrimSpace(cfg.HubSpotAPIKey) == "" {
		logger.Warn("HUBSPOT_API_KEY not set; contact upserts will fail")
	}
	client := hubspot.NewClient(cfg.HubSpotAPIKey, logger, hubspot.WithBaseURL(cfg.HubSpotBaseURL))
	return upsert.NewService(client, logger,
		upsert.WithStrategy(strategy),
		upsert.WithMetrics(m),
		upsert.WithSyncLog(log),
	), nil
}

// BuildUpserter picks how the session API reaches the contact proxy: over
// HTTP when PROXY_BASE_URL is set, in-process through svc otherwise.
func BuildUpserter(cfg *appconfig.Config, svc proxy.ContactUpserter, logger *logging.Logger) reconcile.Upserter {
	if logger == nil {
		logger = logging.Default()
	}
	if base := strings.TrimSpace(cfg.ProxyBaseURL); base != "" {
		logger.Info("session api reconciles through remote proxy", "proxy_base_url", base)
		return reconcile.NewClient(base, logger)
	}
	return proxy.NewLocalUpserter(svc)
}
