package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/gptshell/observe"
)

// Metric names emitted by Middleware.
const (
	MetricSuccess = "auth.success"
	MetricFailure = "auth.failure"
)

// MiddlewareConfig configures Middleware.
type MiddlewareConfig struct {
	// Authenticator checks each request. A nil Authenticator admits every
	// request with AnonymousIdentity.
	Authenticator Authenticator

	// Scope, when set, must be held by the caller. Missing it yields 403.
	Scope string

	// Metrics receives auth.* counters.
	// Default: observe.NoopMetrics()
	Metrics observe.Metrics

	// Logger receives rejections.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// Middleware authenticates requests before next runs. Unauthenticated
// requests get 401 with a WWW-Authenticate challenge. The identity is
// available to next through IdentityFromContext.
func Middleware(config MiddlewareConfig, next http.Handler) http.Handler {
	if config.Metrics == nil {
		config.Metrics = observe.NoopMetrics()
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if config.Authenticator == nil {
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, AnonymousIdentity())))
			return
		}

		res, err := config.Authenticator.Authenticate(ctx, r)
		if err != nil {
			config.Logger.Error(ctx, "authentication error",
				observe.F("path", r.URL.Path),
				observe.Err(err),
			)
			writeError(w, http.StatusInternalServerError, errors.New("authentication unavailable"))
			return
		}
		if !res.Authenticated || res.Identity == nil || res.Identity.IsExpired() {
			reason := res.Err
			if reason == nil {
				reason = ErrInvalidCredentials
			}
			config.Metrics.Increment(ctx, MetricFailure, 1)
			config.Logger.Warn(ctx, "request rejected",
				observe.F("path", r.URL.Path),
				observe.F("method", string(res.Method)),
				observe.Err(reason),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="gptshell"`)
			writeError(w, http.StatusUnauthorized, reason)
			return
		}

		id := res.Identity
		if config.Scope != "" && !id.HasScope(config.Scope) {
			config.Metrics.Increment(ctx, MetricFailure, 1)
			config.Logger.Warn(ctx, "request forbidden",
				observe.F("principal", id.Principal),
				observe.F("scope", config.Scope),
			)
			writeError(w, http.StatusForbidden, ErrForbidden)
			return
		}

		config.Metrics.Increment(ctx, MetricSuccess, 1)
		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
	})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
