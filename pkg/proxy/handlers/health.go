package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/proxy"
	"hohl-rocks/relay/pkg/routing"
	"hohl-rocks/relay/pkg/telemetry/health"
)

// HealthHandler handles liveness probes.
type HealthHandler struct {
	Env string
	now func() time.Time
}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler(env string) *HealthHandler {
	return &HealthHandler{Env: env, now: time.Now}
}

type healthResponse struct {
	OK  bool   `json:"ok"`
	Now int64  `json:"now"`
	Env string `json:"env"`
}

// ServeHTTP implements http.Handler for liveness checks.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = proxy.WriteJSON(w, http.StatusOK, healthResponse{OK: true, Now: h.now().UnixMilli(), Env: h.Env})
}

// ReadyHandler handles readiness probes. The service is ready when at least
// one provider credential exists and every registered check passes.
type ReadyHandler struct {
	Creds   routing.Credentials
	Checker *health.Checker
}

// NewReadyHandler creates a new readiness check handler. checker may be nil.
func NewReadyHandler(creds routing.Credentials, checker *health.Checker) *ReadyHandler {
	return &ReadyHandler{Creds: creds, Checker: checker}
}

type readyResponse struct {
	OK     bool                          `json:"ok"`
	Model  string                        `json:"model"`
	Checks map[string]health.CheckResult `json:"checks,omitempty"`
}

// ServeHTTP implements http.Handler for readiness checks.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	model := routing.ActiveModel(h.Creds)
	if model == "" {
		model = "n/a"
	}

	resp := readyResponse{OK: h.Creds.Len() > 0, Model: model}
	if h.Checker != nil {
		report := h.Checker.CheckReadiness(r.Context())
		resp.OK = resp.OK && report.Ready
		resp.Checks = report.Checks
	}

	status := http.StatusOK
	if !resp.OK {
		status = http.StatusServiceUnavailable
	}
	_ = proxy.WriteJSON(w, status, resp)
}

// ProviderCheck returns a readiness check that passes when at least one
// provider answers its health probe.
func ProviderCheck(p Prober) health.CheckFunc {
	return func(ctx context.Context) error {
		results := p.Probe(ctx)
		if len(results) == 0 {
			return routing.ErrNoProviderConfigured
		}

		var failed []string
		var errs []error
		for name, err := range results {
			if err == nil {
				return nil
			}
			failed = append(failed, name.String())
			errs = append(errs, fmt.Errorf("%s: %s", name, providers.ClientMessage(err)))
		}
		return fmt.Errorf("no provider reachable (%s): %w", strings.Join(failed, ", "), errors.Join(errs...))
	}
}

// RootHandler answers GET / with a plain text banner.
func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("hohl.rocks-back up"))
}

// NotFoundHandler answers unknown paths with 404 {"error":"not_found"}.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	_ = proxy.WriteError(w, http.StatusNotFound, proxy.CodeNotFound)
}
