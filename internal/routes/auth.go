package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/notesafe/notesafe/internal/auth"
	"github.com/notesafe/notesafe/internal/recovery"
)

// RegisterAuthRoutes wires registration and sign-in endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/register", h.Register)
	group.Post("/login", rateLimiter, h.Login)
	group.Post("/logout", h.Logout)
	group.Get("/session", h.Session)
}

// RegisterPasswordRoutes wires the signed-out password reset flow.
func RegisterPasswordRoutes(r fiber.Router, a *auth.Handler, h *recovery.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/password")
	group.Post("/forgot", rateLimiter, h.Forgot)
	group.Get("/otp", h.ResetStatus)
	group.Post("/reset", h.Reset)
	group.Post("/strength", a.Strength)
}

// RegisterProfileRoutes wires profile view, OTP-confirmed profile edits and
// in-session password change.
func RegisterProfileRoutes(r fiber.Router, a *auth.Handler, h *recovery.Handler) {
	group := r.Group("/profile")
	group.Get("", a.Profile)
	group.Put("", h.SubmitProfile)
	group.Get("/verify", h.ProfileStatus)
	group.Post("/verify", h.ConfirmProfile)
	group.Delete("/verify", h.CancelProfile)
	group.Post("/password/otp", h.StartPasswordChange)
	group.Post("/password", h.ChangePassword)
}
