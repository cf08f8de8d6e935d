// Package server assembles the HTTP surface: one pipeline per form endpoint,
// health and metrics routes, and the shared middleware chain.
package server

import (
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatewell-labs/formgate/internal/config"
	"github.com/gatewell-labs/formgate/internal/handlers"
	"github.com/gatewell-labs/formgate/internal/logging"
	"github.com/gatewell-labs/formgate/internal/metrics"
	"github.com/gatewell-labs/formgate/internal/middleware"
	"github.com/gatewell-labs/formgate/internal/pipeline"
	"github.com/gatewell-labs/formgate/internal/ratelimit"
	"github.com/gatewell-labs/formgate/internal/schema"
	"github.com/gatewell-labs/formgate/internal/spam"
)

// StoreFactory builds a rate-limit store for one endpoint's quota. The
// caller decides the backend (memory or redis).
type StoreFactory func(limit int, window time.Duration) ratelimit.Store

// Options carries everything the router needs. Executor and Checker are
// shared across endpoints; rate-limit stores are built per endpoint so
// overrides apply.
type Options struct {
	Config   *config.Config
	Logger   *logging.Logger
	Checker  *spam.Checker
	Executor pipeline.Executor
	NewStore StoreFactory
}

// NewRouter wires every form endpoint under /api/ plus the operational
// routes, wrapped in request-id, security-header and CORS middleware.
func NewRouter(opts Options) http.Handler {
	cfg := opts.Config
	mux := http.NewServeMux()

	forms := schema.All()
	names := make([]string, 0, len(forms))
	for name := range forms {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		form := forms[name]

		limit, window := cfg.RateLimit.Limit(name)
		store := opts.NewStore(limit, window)
		limiter := ratelimit.NewLimiter(store, cfg.RateLimit.FailOpen, func(err error) {
			metrics.RateLimitErrors.Inc()
			opts.Logger.Error("rate limit store error", logging.Err(err))
		})

		p := pipeline.New(pipeline.Options{
			Form:             form,
			Limiter:          limiter,
			Checker:          opts.Checker,
			Executor:         opts.Executor,
			MaxBodyBytes:     cfg.Admission.MaxBodyBytes,
			RateLimitEnabled: cfg.RateLimit.Enabled,
			Logger:           opts.Logger,
		})

		// Routes are registered without a method pattern so non-POST
		// requests still receive the uniform 405 envelope.
		mux.Handle("/api/"+name, handlers.NewFormHandler(name, p, opts.Logger, cfg.DevMode))
	}

	mux.HandleFunc("/healthz", handlers.Health)
	mux.Handle("/metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})(handler)
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.RequestID(handler)

	return handler
}
