/*
Package handler provides the HTTP handlers and routing setup for the presence server.

This file defines the main Router, applying middleware like logging, CORS,
and IP-based rate limiting before delegating requests to the user listing,
health, WebSocket, and static asset handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"presenced/internal/pkg/limiter"
	"presenced/internal/pkg/logx"
	"presenced/internal/pkg/resp"
)

const (
	// ConnectRate limits how many WebSocket connection attempts per second a
	// single IP may make once its burst is spent.
	ConnectRate = 1

	// ConnectBurst is the connection-attempt burst allowance per IP.
	ConnectBurst = 10
)

// HealthStatus is the response body of the health endpoint.
type HealthStatus struct {
	OK bool `json:"ok"`
}

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It configures CORS, global middleware, the read-only presence projection,
// the WebSocket endpoint, and static asset serving.
func Router(deps *AppDeps) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondJSON(w, r, http.StatusOK, HealthStatus{OK: true})
	})

	r.Get("/users", HandleListUsers(deps))

	r.With(connectLimiter.Middleware).Get("/ws", HandleWebSocket(wsUpgrader, deps))

	// Static assets for quick manual testing, served at the site root.
	r.Handle("/*", http.FileServer(http.Dir(deps.Config.StaticDir)))

	return r
}
