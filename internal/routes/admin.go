package routes

import (
    "github.com/gofiber/fiber/v2"

    "github.com/stepwise-app/stepwise/internal/onboarding"
    "github.com/stepwise-app/stepwise/internal/pages"
)

// RegisterAdminRoutes wires the page configuration and user administration
// endpoints.
func RegisterAdminRoutes(r fiber.Router, cfg *pages.Handler, users *onboarding.Handler) {
    r.Get("/admin/config", cfg.Get)
    r.Put("/admin/config", cfg.Update)
    r.Get("/admin/users", users.List)
    r.Delete("/admin/users/:id", users.Delete)
}
