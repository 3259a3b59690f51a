package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"organ/internal/composer"
	"organ/internal/db"
	"organ/internal/handlers"
	applog "organ/internal/log"
	"organ/internal/metrics"
	"organ/internal/wheel"
)

const (
	defaultCookieName      = "organ_session"
	defaultSessionLifetime = 24 * time.Hour
	defaultShutdownTimeout = 10 * time.Second
	defaultWheelCacheSize  = 16
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Session         SessionConfig
	Database        *gorm.DB
	Settings        composer.Settings
	WheelCacheSize  int
	WheelCacheTTL   time.Duration
}

// SessionConfig controls session behavior for the HTTP server.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// Server wraps an http.Server and exposes helpers for bootstrapping the
// composition service.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration.
func New(cfg Config) (*Server, error) {
	ctx := context.Background()
	applog.Debug(ctx, "initializing server",
		"addr", cfg.Addr,
		"sessionLifetime", cfg.Session.Lifetime.String(),
		"sessionCookie", cfg.Session.CookieName,
	)

	sessionCfg := cfg.Session
	if sessionCfg.Lifetime <= 0 {
		applog.Debug(ctx, "session lifetime not provided, using default")
		sessionCfg.Lifetime = defaultSessionLifetime
	}
	if strings.TrimSpace(sessionCfg.CookieName) == "" {
		applog.Debug(ctx, "session cookie name not provided, using default")
		sessionCfg.CookieName = defaultCookieName
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.WheelCacheSize <= 0 {
		cfg.WheelCacheSize = defaultWheelCacheSize
	}
	cfg.Settings = mergeDefaults(cfg.Settings)

	sessionManager := scs.New()
	sessionManager.Lifetime = sessionCfg.Lifetime
	sessionManager.Cookie.Name = sessionCfg.CookieName
	sessionManager.Cookie.Domain = sessionCfg.CookieDomain
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = sessionCfg.CookieSecure

	applog.Debug(ctx, "session manager configured",
		"cookieName", sessionCfg.CookieName,
		"cookieDomain", sessionCfg.CookieDomain,
		"cookieSecure", sessionCfg.CookieSecure,
	)

	var store *db.Store
	if cfg.Database != nil {
		store = db.NewStore(cfg.Database)
	}
	cache := wheel.NewCache(cfg.WheelCacheSize, cfg.WheelCacheTTL, func(ctx context.Context, id string) (*wheel.Graph, error) {
		g, err := store.GetWheel(ctx, id)
		metrics.RecordWheelLoad(err)
		return g, err
	})

	handlers.Configure(sessionManager, store, cache, cfg.Settings)

	applog.Debug(ctx, "handler dependencies configured",
		"database", cfg.Database != nil,
		"wheelCacheSize", cfg.WheelCacheSize,
		"currency", cfg.Settings.Currency,
	)

	handler := sessionManager.LoadAndSave(handlers.RequestContext(newRouter()))

	applog.Debug(ctx, "http handler chain prepared")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// mergeDefaults fills unset engine settings from the factory defaults.
func mergeDefaults(s composer.Settings) composer.Settings {
	def := composer.DefaultSettings()
	if s.DropsPerVolumeUnit <= 0 {
		s.DropsPerVolumeUnit = def.DropsPerVolumeUnit
	}
	if s.Currency == "" {
		s.Currency = def.Currency
	}
	return s
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server within the configured timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	applog.Debug(context.Background(), "server handler requested")
	return s.httpServer.Handler
}
