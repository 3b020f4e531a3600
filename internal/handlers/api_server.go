// internal/handlers/api_server.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/dutch/internal/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter mounts every HTTP and WebSocket endpoint behind request logging, panic
// recovery and CORS for the given origins.
func NewRouter(logger *logrus.Logger, gs *GameServer, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LogMiddleware(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/game/ws/{room}", GameWSHandler(logger, gs))
	r.Get("/rooms", ListRoomsHandler(gs))
	r.Get("/session", SessionHandler)
	r.Post("/session", SessionHandler)
	r.Get("/healthz", HealthHandler(gs))

	return r
}
