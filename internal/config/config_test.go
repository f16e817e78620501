package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "DRAFT_TTL", "DEWI_CLUB_ID", "REDIS_ADDR", "UPSERT_STRATEGY"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "3000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, []string{"https://het-labo.be", "http://localhost:3000"}) {
		t.Fatalf("unexpected default origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.DraftTTL != 60*time.Second {
		t.Fatalf("expected 60s draft ttl, got %s", cfg.DraftTTL)
	}
	if cfg.DewiClubID != 232 {
		t.Fatalf("expected default club 232, got %d", cfg.DewiClubID)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected redis disabled by default, got %q", cfg.RedisAddr)
	}
	if cfg.UpsertStrategy != "search_first" {
		t.Fatalf("expected search_first, got %s", cfg.UpsertStrategy)
	}
	if cfg.HubSpotActivityProperty != "gekozen_activiteit" || cfg.HubSpotCompletionProperty != "reservatie_voltooid" {
		t.Fatalf("unexpected default properties %s/%s", cfg.HubSpotActivityProperty, cfg.HubSpotCompletionProperty)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("DRAFT_TTL", "2m")
	t.Setenv("DRAFT_DEDUP_KEY", "name")
	t.Setenv("DRAFT_CLEAR_ON_FINAL", "false")
	t.Setenv("UPSERT_STRATEGY", " Create_First ")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 0.5 {
		t.Fatalf("expected rps override, got %v", cfg.RateLimitRPS)
	}
	if cfg.DraftTTL != 2*time.Minute {
		t.Fatalf("expected draft ttl override, got %s", cfg.DraftTTL)
	}
	if cfg.DraftDedupKey != "name" {
		t.Fatalf("expected dedup override, got %s", cfg.DraftDedupKey)
	}
	if cfg.DraftClearOnFinal {
		t.Fatalf("expected clear on final disabled")
	}
	if cfg.UpsertStrategy != "create_first" {
		t.Fatalf("expected normalized strategy, got %s", cfg.UpsertStrategy)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DEWI_CLUB_ID", "abc")
	t.Setenv("DRAFT_TTL", "soon")
	t.Setenv("REDIS_TLS", "maybe")
	cfg := Load()
	if cfg.DewiClubID != 232 {
		t.Fatalf("expected default club, got %d", cfg.DewiClubID)
	}
	if cfg.DraftTTL != 60*time.Second {
		t.Fatalf("expected default ttl, got %s", cfg.DraftTTL)
	}
	if cfg.RedisTLS {
		t.Fatalf("expected tls disabled")
	}
}
