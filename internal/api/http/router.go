package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Account        *handlers.AccountHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	account := app.Group("/account")
	account.Post("/register", cfg.Account.Register)
	account.Post("/login", cfg.Account.Login)
	account.Post("/forgot-password", cfg.Account.ForgotPassword)
	account.Post("/reset-password", cfg.Account.ResetPassword)
	account.Post("/logout", cfg.Account.Logout)

	app.Get("/user", cfg.AuthMiddleware.Handle, cfg.Users.Me)
}
