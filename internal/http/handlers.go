package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const readyTimeout = 2 * time.Second

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Message("API OK").Write(w)
}

// handleHealth reports liveness and never touches the store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports 503 until the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := map[string][]string{}
	if s.templates == nil {
		failed["templates"] = []string{"templates not loaded"}
	}
	if err := s.service.Ping(ctx); err != nil {
		failed["store"] = []string{err.Error()}
	}
	if len(failed) > 0 {
		s.logger.WarnContext(r.Context(), "Readiness check failed", "failed", failed)
		ServiceUnavailableError("Service not ready", failed).Write(w)
		return
	}

	NewJSONResponse().Data(map[string]any{
		"status":    "ready",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    map[string]string{"templates": "ok", "store": "ok"},
	}).Write(w)
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.traceMiddleware.Metrics()
	rateMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "Responses with a 5xx status", "counter", traceMetrics.ServerErrors)
	metric("rate_limit_hits_total", "Requests rejected by the rate limiter", "counter", rateMetrics.TotalHits)
	metric("active_rate_limit_clients", "Clients currently tracked by the rate limiter", "gauge", rateMetrics.ClientCount)
	metric("suspicious_requests_total", "Requests flagged by the detector", "counter", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "Process uptime in seconds", "gauge", int64(time.Since(s.started).Seconds()))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", "path", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	data := struct{ APIBaseURL string }{APIBaseURL: s.apiBaseURL}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
	}
}
