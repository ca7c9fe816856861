// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/harborwatch/internal/auth"
	"github.com/tomtom215/harborwatch/internal/config"
)

// Router wires the handler, the session gate and the middleware stack.
type Router struct {
	handler       *Handler
	gate          auth.Gate
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. cfg may be nil in tests.
func NewRouter(handler *Handler, gate auth.Gate, cfg *config.Config) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	if cfg != nil {
		mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
		if cfg.Security.RateLimitReqs > 0 {
			mwConfig.RateLimitRequests = cfg.Security.RateLimitReqs
		}
		if cfg.Security.RateLimitWindow > 0 {
			mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
		}
		mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled
	}
	return &Router{
		handler:       handler,
		gate:          gate,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// Session endpoints verify the presented token themselves.
	r.Route("/api/v1/session", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitSession))
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)
		r.Post("/open", router.handler.SessionOpen)
		r.Post("/reauth", router.handler.SessionReauth)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics)
		r.Use(Authenticate(router.gate))

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.With(Compression).Get("/snapshot", router.handler.Snapshot)
			r.With(Compression).Get("/geojson", router.handler.GeoJSON)
			r.Get("/connection", router.handler.Connection)
			r.Get("/view", router.handler.View)
			r.Post("/select", router.handler.Select)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitInteractive))
			r.Put("/criteria", router.handler.SetCriteria)
			r.Put("/viewport", router.handler.SetViewport)
			r.Put("/toggles", router.handler.SetToggles)
		})

		r.With(router.chiMiddleware.RateLimitCustom(RateLimitWebSocket)).Get("/ws", router.handler.WebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
