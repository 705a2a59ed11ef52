package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/costwatch/costwatch/internal/api/handler"
	"github.com/costwatch/costwatch/internal/api/middleware"
	"github.com/costwatch/costwatch/internal/auth"
	"github.com/costwatch/costwatch/internal/cost"
	"github.com/costwatch/costwatch/internal/ingest"
	"github.com/costwatch/costwatch/internal/resource"
	"github.com/costwatch/costwatch/internal/team"
	"github.com/costwatch/costwatch/internal/user"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	AuthService   *auth.Service
	UserRepo      user.Repository
	TeamRepo      team.Repository
	ResourceRepo  resource.Repository
	CostRepo      cost.Repository
	Ingester      *ingest.Ingester
	DBPinger      handler.DBPinger
	AllowedOrigin string
	Version       string
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.AllowedOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	authHandler := handler.NewAuthHandler(deps.AuthService)
	userHandler := handler.NewUserHandler(deps.AuthService, deps.UserRepo, deps.TeamRepo)
	teamHandler := handler.NewTeamHandler(deps.TeamRepo)
	resourceHandler := handler.NewResourceHandler(deps.ResourceRepo, deps.TeamRepo)
	costHandler := handler.NewCostHandler(deps.CostRepo)

	r.Post("/login", authHandler.Login)
	r.Post("/users", userHandler.Create)

	// Everything below requires a valid session.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.AuthService))

		r.Get("/users/me", userHandler.Me)
		r.Get("/teams", teamHandler.List)
		r.Get("/teams/{teamId}/costs", costHandler.ListByTeam)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(user.RoleAdmin, user.RoleTeamLead))

			r.Get("/resources", resourceHandler.List)
			r.Post("/resources", resourceHandler.Create)
			r.Put("/resources/{id}/team/{teamId}", resourceHandler.UpdateTeam)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())

			r.Get("/users", userHandler.List)
			r.Put("/users/{id}/team/{teamId}", userHandler.UpdateTeam)
			r.Post("/teams", teamHandler.Create)
			r.Post("/costs", costHandler.Create)

			if deps.Ingester != nil {
				ingestHandler := handler.NewIngestHandler(deps.Ingester)
				r.Post("/ingest/run", ingestHandler.Run)
			}
		})
	})

	return r
}
