package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"butce/internal/core"
	"butce/internal/log"
	"butce/internal/middleware/ratelimit"
	"butce/internal/middleware/security"
	"butce/internal/middleware/trace"
	"butce/internal/screens"
)

// LedgerWriter is the write path behind the POST, PUT and DELETE routes.
type LedgerWriter interface {
	AddEntry(ctx context.Context, kind core.EntryKind, in core.EntryInput) (core.Entry, error)
	UpdateEntry(ctx context.Context, kind core.EntryKind, id string, in core.EntryInput) (core.Entry, error)
	DeleteEntry(ctx context.Context, kind core.EntryKind, id string) error
	AddCategory(ctx context.Context, name, typ string) (core.Category, error)
}

// Options configures NewServer.
type Options struct {
	Addr    string
	Screens screens.Deps
	Ledger  LedgerWriter
	// Ready backs /readyz. Nil means always ready.
	Ready              func(ctx context.Context) error
	RateLimitPerMinute int
	// StreamHeartbeat is the keep-alive interval of event streams.
	StreamHeartbeat time.Duration
	Logger          *log.Logger
}

type Server struct {
	http.Server

	screens   screens.Deps
	ledger    LedgerWriter
	ready     func(ctx context.Context) error
	heartbeat time.Duration
	logger    *log.Logger
	started   time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	// closing ends open event streams, which Shutdown would otherwise wait on.
	closing      chan struct{}
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	heartbeat := opts.StreamHeartbeat
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}

	s := &Server{
		screens:          opts.Screens,
		ledger:           opts.Ledger,
		ready:            opts.Ready,
		heartbeat:        heartbeat,
		logger:           logger.WithComponent(log.ComponentHTTP),
		started:          time.Now(),
		securityDetector: security.NewDetector(logger),
		closing:          make(chan struct{}),
	}
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		Logger:            logger,
	})
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET "+screens.Home.Route(), s.handleHome)
	for _, kind := range []core.EntryKind{core.Income, core.Expense} {
		list := screens.ListDestination(kind).Route()
		form := screens.FormDestination(kind).Route()
		edit := screens.EditDestination(kind).Route()

		mux.HandleFunc("GET "+list, s.handleEntryList(kind))
		mux.HandleFunc("POST "+list, s.handleCreateEntry(kind))
		mux.HandleFunc("GET "+form, s.handleEntryForm(kind))
		mux.HandleFunc("GET "+edit, s.handleEntryEdit(kind))
		mux.HandleFunc("PUT "+edit, s.handleUpdateEntry(kind))
		mux.HandleFunc("DELETE "+edit, s.handleDeleteEntry(kind))
	}
	categories := screens.CategoryAdd.Route()
	mux.HandleFunc("GET "+categories, s.handleCategories)
	mux.HandleFunc("POST "+categories, s.handleCreateCategory)
	mux.HandleFunc("GET "+categories+"/stream", s.handleCategoryStream)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, writeRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown closes event streams, stops background loops and drains the
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.closing)
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// deps returns the screen dependencies with the request-scoped logger.
func (s *Server) deps(r *http.Request) screens.Deps {
	d := s.screens
	d.Logger = log.FromContext(r.Context())
	return d
}
