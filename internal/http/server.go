package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"staticcms/app/internal/site"
)

// DocumentStore is the slice of the document store the transport needs.
type DocumentStore interface {
	Current(ctx context.Context) *site.SiteData
	Raw(ctx context.Context) string
	Save(ctx context.Context, text string) error
}

// SessionGate checks admin credentials and sessions.
type SessionGate interface {
	Login(password string) (string, time.Time, error)
	Authenticated(token string) bool
}

// Options configures the HTTP server wiring.
type Options struct {
	Store       DocumentStore
	Gate        SessionGate
	Database    *gorm.DB
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
	RateLimiter RateLimiterSettings
	// SecureCookies marks the session cookie Secure; enable behind HTTPS.
	SecureCookies bool
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the HTTP transport layer via Huma and templ components.
type Server struct {
	api           huma.API
	mux           *stdhttp.ServeMux
	store         DocumentStore
	gate          SessionGate
	logger        *logrus.Logger
	sentry        *sentry.Hub
	db            *gorm.DB
	rateLimiter   *RateLimiter
	secureCookies bool
	now           func() time.Time
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, eris.New("document store is required")
	}
	if opts.Gate == nil {
		return nil, eris.New("session gate is required")
	}
	if opts.Database == nil {
		return nil, eris.New("database is required")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("Static CMS", "1.0.0")

	api := humago.New(mux, config)

	srv := &Server{
		api:           api,
		mux:           mux,
		store:         opts.Store,
		gate:          opts.Gate,
		logger:        opts.Logger,
		sentry:        opts.SentryHub,
		db:            opts.Database,
		secureCookies: opts.SecureCookies,
		now:           time.Now,
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	srv.rateLimiter = NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL)

	srv.registerMiddlewares()
	if err := srv.registerRoutes(); err != nil {
		srv.rateLimiter.Close()
		return nil, err
	}

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.adminCacheMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() error {
	if err := s.registerStaticRoutes(); err != nil {
		return err
	}

	s.registerAdminRoutes()
	s.registerHealthRoute()
	s.registerPageRoutes()
	return nil
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
