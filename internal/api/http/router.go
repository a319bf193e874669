package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	FormConfig     *handlers.FormConfigHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)

	// static paths before the /:id wildcard
	tickets.Get("/check-duplicate", cfg.Tickets.CheckDuplicate)
	tickets.Get("/config/formConfig", cfg.FormConfig.Get)
	tickets.Put("/config/formConfig", auth.RequireRole(domain.RoleAdmin), cfg.FormConfig.Update)
	tickets.Get("/project-members", cfg.Tickets.ProjectMembers)
	tickets.Get("/projects/:projectName/members", cfg.Tickets.ProjectClientMembers)
	tickets.Get("/projects/:projectName/member-emails", cfg.Tickets.ProjectMemberEmails)

	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Put("/:id/comments/:index", cfg.Tickets.EditComment)
	tickets.Get("/:id/employees", cfg.Tickets.Employees)
	tickets.Get("/:id/clients", cfg.Tickets.Clients)
}
