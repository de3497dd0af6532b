package routes

import (
    "github.com/gofiber/fiber/v2"

    "github.com/stepwise-app/stepwise/internal/onboarding"
)

// RegisterUserRoutes wires registration and onboarding progress endpoints.
// The rate limiter guards registration only.
func RegisterUserRoutes(r fiber.Router, h *onboarding.Handler, registerLimit fiber.Handler) {
    r.Post("/register", registerLimit, h.Register)
    r.Post("/user/authenticate", h.Authenticate)
    r.Get("/user/:id/progress", h.Progress)
    r.Put("/user/:id/update_data", h.UpdateData)
    r.Post("/user/:id/complete", h.Complete)
}
