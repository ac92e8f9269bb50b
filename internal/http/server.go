package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/ledger"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
)

// ReadinessCheck probes one dependency; a nil error means ready.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	http.Server
	ledger *ledger.Ledger
	logger *applog.Logger

	traceMiddleware  *trace.Middleware
	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	readiness        map[string]ReadinessCheck

	appMetrics *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	totalExpenses int64
	notPersisted  int64
	rejected      int64
	uptime        time.Time
}

type Option func(*serverOptions)

type serverOptions struct {
	postsPerMinute int
	readiness      map[string]ReadinessCheck
}

// WithPostRateLimit sets how many POSTs a client may send per minute.
func WithPostRateLimit(n int) Option {
	return func(o *serverOptions) { o.postsPerMinute = n }
}

// WithReadinessCheck adds a named dependency probe to /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(o *serverOptions) { o.readiness[name] = check }
}

// NewServer wires routes and middleware around the ledger, returning a
// ready-to-run http.Server.
func NewServer(addr string, l *ledger.Ledger, logger *applog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = applog.Discard()
	}
	o := serverOptions{
		postsPerMinute: ratelimit.DefaultConfig().RequestsPerMinute,
		readiness:      map[string]ReadinessCheck{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger = logger.WithComponent(applog.ComponentHTTP)
	detector := security.NewDetector(logger)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		ledger:           l,
		logger:           logger,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		securityDetector: detector,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: o.postsPerMinute,
		}),
		readiness:  o.readiness,
		appMetrics: &appMetrics{uptime: time.Now()},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /expenses", s.handleListExpenses)

	mux.HandleFunc("GET /categories", s.handleCategories)
	mux.HandleFunc("GET /categories/defaults", s.handleDefaultCategories)

	mux.HandleFunc("GET /reports/total", s.handleTotal)
	mux.HandleFunc("GET /reports/categories", s.handleCategoryTotals)
	mux.HandleFunc("GET /reports/categories/{name}", s.handleCategoryTotal)
	mux.HandleFunc("GET /reports/dates/{date}", s.handleDateTotal)
	mux.HandleFunc("GET /reports/monthly", s.handleMonthlyTotals)

	limit := s.rateLimiter.Middleware(detector.ExtractClientIP, s.writeRateLimited, http.MethodPost)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	// Outermost first: trace, probe detection, headers, POST limit.
	var handler http.Handler = mux
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	s.Handler = handler

	return s
}

// Shutdown stops background routines and drains the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
