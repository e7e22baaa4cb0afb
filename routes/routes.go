package routes

import (
	"log/slog"
	"time"

	"github.com/fogna/football-stats/handlers"
	"github.com/fogna/football-stats/middleware"
	"github.com/fogna/football-stats/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Standings *handlers.StandingsHandler
	Admin     *handlers.AdminHandler
	Dashboard *handlers.DashboardHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

type Options struct {
	AllowedOrigins []string
	TokenParser    middleware.TokenParser
	Logger         *slog.Logger
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.TokenParser, opts.Logger)

	// Публичные маршруты
	router.Get("/healthz", h.Health.Healthz)
	router.Get("/swagger/*", handlers.DocsHandler())
	router.Post("/auth/login", h.Auth.Login)
	router.Post("/auth/logout", h.Auth.Logout)

	// Любая авторизованная роль
	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/auth/me", h.Auth.Me)
		r.Get("/ws", h.WebSocket.ServeWs)

		r.Route("/api", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(chiMiddleware.Timeout(30 * time.Second))

				r.Get("/overview", h.Dashboard.Overview)
				r.Get("/seasons", h.Standings.Seasons)
				r.Get("/leagues", h.Standings.Leagues)
				r.Get("/teams", h.Standings.Teams)
				r.Get("/standings", h.Standings.Standings)
				r.Get("/leaderboard", h.Standings.Leaderboard)
				r.Get("/matches", h.Standings.Matches)
			})

			// Только администратор
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))

				r.Post("/imports", h.Admin.Import)
				r.Get("/seasons", h.Admin.ListSeasons)
				r.Delete("/seasons/{season}", h.Admin.DeleteSeason)
				r.Get("/export", h.Admin.Export)
				r.Post("/export/archive", h.Admin.ArchiveExport)
			})
		})
	})

	router.NotFound(handlers.NotFound)
}
