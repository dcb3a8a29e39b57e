package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-api/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-api/internal/auth"
	"github.com/spec-kit/helpdesk-api/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Reference      *handlers.ReferenceHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes with their role gates.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	requireAuth := cfg.AuthMiddleware.Handle

	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", requireAuth, cfg.Users.Me)

	tickets := app.Group("/tickets", requireAuth)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.GetOne)
	tickets.Post("/", auth.RequireRole(domain.RoleCustomer), cfg.Tickets.Create)
	tickets.Patch("/:id", auth.RequireRole(domain.RoleAgent, domain.RoleAdmin), cfg.Tickets.Update)
	tickets.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.Delete)
	tickets.Get("/:id/comments", cfg.Comments.ListByTicket)
	tickets.Post("/:id/comments", cfg.Comments.Create)

	users := app.Group("/users", requireAuth, auth.RequireRole(domain.RoleAdmin))
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.GetOne)
	users.Post("/", cfg.Users.Register)

	statuses := app.Group("/statuses", requireAuth)
	statuses.Get("/", cfg.Reference.ListStatuses)
	statuses.Post("/", auth.RequireRole(domain.RoleAdmin), cfg.Reference.CreateStatus)

	priorities := app.Group("/priorities", requireAuth)
	priorities.Get("/", cfg.Reference.ListPriorities)
	priorities.Post("/", auth.RequireRole(domain.RoleAdmin), cfg.Reference.CreatePriority)
}
