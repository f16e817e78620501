package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	StaticDir   string
	DatabaseURL string

	// HubSpot contact directory
	HubSpotAPIKey             string
	HubSpotBaseURL            string
	HubSpotActivityProperty   string
	HubSpotCompletionProperty string
	UpsertStrategy            string

	// Reservation platform catalogue
	DewiAPIKey  string
	DewiBaseURL string
	DewiClubID  int

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	AdminJWTSecret     string

	// Session drafts
	RedisAddr           string
	RedisPassword       string
	RedisTLS            bool
	DraftTTL            time.Duration
	DraftDedupKey       string
	DraftFinalizePolicy string
	DraftClearOnFinal   bool
	ProxyBaseURL        string

	SyncLogRetention time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3000"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StaticDir:   getEnv("STATIC_DIR", "."),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		HubSpotAPIKey:             getEnv("HUBSPOT_API_KEY", ""),
		HubSpotBaseURL:            getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),
		HubSpotActivityProperty:   getEnv("HUBSPOT_ACTIVITY_PROPERTY", "gekozen_activiteit"),
		HubSpotCompletionProperty: getEnv("HUBSPOT_COMPLETION_PROPERTY", "reservatie_voltooid"),
		UpsertStrategy:            strings.ToLower(strings.TrimSpace(getEnv("UPSERT_STRATEGY", "search_first"))),

		DewiAPIKey:  getEnv("DEWI_API_KEY", ""),
		DewiBaseURL: getEnv("DEWI_BASE_URL", "https://marvel.demo2.dewi-online.nl/api"),
		DewiClubID:  getEnvAsInt("DEWI_CLUB_ID", 232),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"https://het-labo.be", "http://localhost:3000"}),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),

		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisTLS:            getEnvAsBool("REDIS_TLS", false),
		DraftTTL:            getEnvAsDuration("DRAFT_TTL", 60*time.Second),
		DraftDedupKey:       getEnv("DRAFT_DEDUP_KEY", "name_source"),
		DraftFinalizePolicy: getEnv("DRAFT_FINALIZE_POLICY", "monotonic"),
		DraftClearOnFinal:   getEnvAsBool("DRAFT_CLEAR_ON_FINAL", true),
		ProxyBaseURL:        getEnv("PROXY_BASE_URL", ""),

		SyncLogRetention: getEnvAsDuration("SYNC_LOG_RETENTION", 90*24*time.Hour),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blank items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
