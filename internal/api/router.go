package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/onenet-console/internal/panel"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)

			r.Post("/token", s.handleMintToken)
			r.Post("/token/verify", s.handleVerifyToken)
			r.Get("/activity", s.handleListActivity)

			r.Route("/cache/devices", func(r chi.Router) {
				r.Get("/", s.handleGetCache)
				r.Put("/", s.handleReplaceCache)
				r.Delete("/", s.handleClearCache)
			})

			r.Route("/v1/devices", func(r chi.Router) {
				r.Post("/query", s.handleQueryDevicesV1)
				r.Post("/", s.handleCreateDeviceV1)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDeviceV1)
					r.Put("/", s.handleUpdateDeviceV1)
					r.Get("/datastreams", s.handleListDatastreams)
					r.Get("/datapoints", s.handleQueryDatapoints)
				})
			})

			r.Route("/v2", func(r chi.Router) {
				r.Post("/devices", s.handleCreateDeviceV2)
				r.Post("/devices/update", s.handleUpdateDeviceV2)
				r.Get("/devices/detail", s.handleGetDeviceV2)
				r.Get("/datapoints/history", s.handleHistoryDatapoints)
				r.Post("/files", s.handleUploadFile)
				r.Get("/files/space", s.handleFileSpace)
			})
		})
	})

	r.With(s.sessionMiddleware).Get(s.wsPath(), s.handleWebSocket)

	console := panel.Handler(s.console.WebDir)
	r.Handle("/console/*", http.StripPrefix("/console", console))
	r.Handle("/console", http.RedirectHandler("/console/", http.StatusMovedPermanently))
	r.Handle("/*", console)

	return r
}

// Handler returns the fully wired router without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path != "" {
		return s.wsCfg.Path
	}
	return "/ws"
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	checks := map[string]string{}

	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			status = "degraded"
			checks["database"] = err.Error()
		} else {
			checks["database"] = "ok"
		}
	}
	if s.events != nil {
		if s.events.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			status = "degraded"
			checks["mqtt"] = "disconnected"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}
