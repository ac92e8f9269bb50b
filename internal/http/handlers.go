package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	applog "expensetracker/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.readiness))
	for name := range s.readiness {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names)+1)
	checks["ledger"] = "ok"
	allReady := true
	for _, name := range names {
		if err := s.readiness[name](ctx); err != nil {
			checks[name] = "error: " + err.Error()
			allReady = false
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				"check", name, applog.FieldError, err)
			continue
		}
		checks[name] = "ok"
	}

	status := "ready"
	code := http.StatusOK
	if !allReady {
		status = "not ready"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n", traceMetrics.TotalRequests)
	fmt.Fprintf(w, "http_client_errors_total %d\n", traceMetrics.ClientErrors)
	fmt.Fprintf(w, "http_server_errors_total %d\n", traceMetrics.ServerErrors)
	fmt.Fprintf(w, "http_response_time_avg_microseconds %d\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP security_suspicious_requests_total Requests rejected as probes\n")
	fmt.Fprintf(w, "# TYPE security_suspicious_requests_total counter\n")
	fmt.Fprintf(w, "security_suspicious_requests_total %d\n", securityMetrics.SuspiciousRequests)
	fmt.Fprintf(w, "security_spoofed_forwarding_total %d\n", securityMetrics.SpoofedForwarding)

	fmt.Fprintf(w, "ratelimit_rejections_total %d\n", rateLimitMetrics.TotalHits)
	fmt.Fprintf(w, "ratelimit_active_clients %d\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP ledger_expenses Number of expenses in the ledger\n")
	fmt.Fprintf(w, "# TYPE ledger_expenses gauge\n")
	fmt.Fprintf(w, "ledger_expenses %d\n", s.ledger.Len())
	fmt.Fprintf(w, "ledger_expenses_recorded_total %d\n", atomic.LoadInt64(&s.appMetrics.totalExpenses))
	fmt.Fprintf(w, "ledger_expenses_rejected_total %d\n", atomic.LoadInt64(&s.appMetrics.rejected))
	fmt.Fprintf(w, "ledger_persist_failures_total %d\n", atomic.LoadInt64(&s.appMetrics.notPersisted))

	fmt.Fprintf(w, "app_uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}
