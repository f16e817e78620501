package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/het-labo/stixn-dewi/internal/http/middleware"
	"github.com/het-labo/stixn-dewi/internal/proxy"
	"github.com/het-labo/stixn-dewi/internal/synclog"
	"github.com/het-labo/stixn-dewi/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	ContactHandler     *proxy.ContactHandler
	SaveUserHandler    *proxy.SaveUserHandler
	SessionHandler     *proxy.SessionHandler
	SyncLogHandler     *synclog.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// RateLimiter throttles the public write endpoints when set.
	RateLimiter     *httpmiddleware.RateLimiter
	AdminAuthSecret string
	// StaticDir holds the reservation pages; "/" serves its index.html.
	StaticDir string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Endpoints the reservation pages call from the browser.
	r.Group(func(public chi.Router) {
		if cfg.RateLimiter != nil {
			public.Use(cfg.RateLimiter.Middleware)
		}
		if cfg.ContactHandler != nil {
			public.Post("/api/hubspot/contact", cfg.ContactHandler.Upsert)
		}
		if cfg.SaveUserHandler != nil {
			public.Post("/hubspot/save-user", cfg.SaveUserHandler.Save)
		}
		if cfg.SessionHandler != nil {
			public.Route("/api/sessions", cfg.SessionHandler.Routes)
		}
	})

	if cfg.SyncLogHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/sync-log", cfg.SyncLogHandler.List)
		})
	}

	if cfg.StaticDir != "" {
		r.Get("/*", http.FileServer(http.Dir(cfg.StaticDir)).ServeHTTP)
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
