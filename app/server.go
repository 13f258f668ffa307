package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/gptshell/auth"
	"github.com/jonwraymond/gptshell/health"
	"github.com/jonwraymond/gptshell/history"
	"github.com/jonwraymond/gptshell/observe"
	"github.com/jonwraymond/gptshell/shell"
	"github.com/jonwraymond/gptshell/translate"
)

const maxRequestBody = 64 << 10

// TranslateRequest is the body of POST /v1/translate.
type TranslateRequest struct {
	Input string `json:"input"`
	CWD   string `json:"cwd,omitempty"`
	OS    string `json:"os,omitempty"`
}

// TranslateResponse is the answer of POST /v1/translate. The API never
// executes commands.
type TranslateResponse struct {
	RequestID   string  `json:"request_id"`
	Outcome     string  `json:"outcome"`
	Provider    string  `json:"provider,omitempty"`
	Command     string  `json:"command,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
	Warning     string  `json:"warning,omitempty"`
	Safe        bool    `json:"safe"`
	Dangerous   bool    `json:"dangerous"`
	LatencyMS   float64 `json:"latency_ms"`
	Error       string  `json:"error,omitempty"`
}

// Handler returns the HTTP API.
//
//	POST /v1/translate   translate scope
//	GET  /v1/stats       read scope
//	GET  /v1/history     read scope, ?n= limits entries
//	GET  /healthz /readyz /health /health/{name}
//	GET  /metrics
func (a *App) Handler() http.Handler {
	mw := observe.MiddlewareFromObserver(a.obs)
	guard := func(scope string, h http.Handler) http.Handler {
		return auth.Middleware(auth.MiddlewareConfig{
			Authenticator: a.authn,
			Scope:         scope,
			Metrics:       a.metrics,
			Logger:        a.logger.With(observe.F("component", "auth")),
		}, h)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/translate", mw.Wrap("translate", guard(auth.ScopeTranslate, http.HandlerFunc(a.handleTranslate))))
	mux.Handle("GET /v1/stats", mw.Wrap("stats", guard(auth.ScopeRead, http.HandlerFunc(a.handleStats))))
	mux.Handle("GET /v1/history", mw.Wrap("history", guard(auth.ScopeRead, http.HandlerFunc(a.handleHistory))))

	hm := http.NewServeMux()
	health.RegisterHandlers(hm, a.health)
	for _, p := range []string{"GET /healthz", "GET /readyz", "GET /health", "GET /health/{name}"} {
		mux.Handle(p, mw.Wrap("health", hm))
	}

	mux.Handle("GET /metrics", mw.Wrap("metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	return mux
}

func (a *App) handleTranslate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := uuid.NewString()

	var req TranslateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, TranslateResponse{RequestID: id, Error: "invalid request body: " + err.Error()})
		return
	}

	res := a.translator.Translate(ctx, req.Input, translate.Context{WorkingDir: req.CWD, OS: req.OS})
	resp := TranslateResponse{
		RequestID: id,
		Outcome:   string(res.Outcome),
		Provider:  res.Provider,
		LatencyMS: float64(res.Latency.Microseconds()) / 1000,
	}
	if t := res.Translation; t != nil {
		resp.Command = t.Command
		resp.Explanation = t.Explanation
		resp.Warning = t.WarningText()
		resp.Safe = t.Safe
		resp.Dangerous = t.Command != "" && (shell.IsDangerous(t.Command) || !t.Safe)
	}

	status := http.StatusOK
	switch res.Outcome {
	case translate.OutcomeRejected:
		status = http.StatusBadRequest
		if res.Rejection != nil {
			resp.Error = res.Rejection.Reason
		}
	case translate.OutcomeRateLimited:
		status = http.StatusTooManyRequests
		resp.Error = "rate limit exceeded"
		w.Header().Set("Retry-After", strconv.Itoa(a.retryAfterSeconds()))
	case translate.OutcomeDegraded:
		status = http.StatusServiceUnavailable
		if res.Err != nil {
			resp.Error = "all providers failed"
		}
	}

	a.logger.Debug(ctx, "translate served",
		observe.F("request_id", id),
		observe.F("principal", auth.PrincipalFromContext(ctx)),
		observe.F("outcome", resp.Outcome),
	)
	writeJSON(w, status, resp)
}

// retryAfterSeconds estimates when one token will be available.
func (a *App) retryAfterSeconds() int {
	rate := a.translator.Limiter().Config().Rate
	if rate <= 0 {
		return 1
	}
	missing := 1 - a.translator.Limiter().Tokens()
	secs := int(missing/rate) + 1
	return max(secs, 1)
}

func (a *App) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Stats())
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid n %q", v)})
			return
		}
		n = parsed
	}
	entries := a.history.Recent(n)
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve listens on server.addr and serves Handler until ctx is done, then
// shuts the server down within server.shutdown_grace.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.Server.Addr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", a.config.Server.Addr, err)
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: a.config.Server.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	a.logger.Info(ctx, "http server listening", observe.F("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	grace := a.config.Server.ShutdownGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("app: http shutdown: %w", err)
	}
	a.logger.Info(sctx, "http server stopped")
	return nil
}
