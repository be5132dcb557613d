package http

import (
	"context"
	"net/http"
	"time"

	"butce/internal/log"
	"butce/internal/screens"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the store and reports middleware counters.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]any{}

	if s.ready == nil {
		checks["store"] = "ok"
	} else if err := s.ready(ctx); err != nil {
		log.FromContext(r.Context()).ErrorContext(ctx, "Readiness check failed", log.FieldError, err)
		checks["store"] = "failed"
		status = "not_ready"
		code = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = s.rateLimiter.GetMetrics()
	checks["security"] = s.securityDetector.GetMetrics()
	checks["requests"] = s.traceMiddleware.GetMetrics()

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(screens.LoadHome(r.Context(), s.deps(r))).Write(w)
}

func writeRateLimited(w http.ResponseWriter, _ *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, MsgTooManyWrites).Header("Retry-After", "60").Write(w)
}

// writeFailure logs err unless it is the caller's fault and writes the mapped
// response.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error, op, fallback string) {
	resp := FromError(err, fallback)
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op, nil)
	}
	resp.Write(w)
}
