package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/notesafe/notesafe/internal/password"
	"github.com/notesafe/notesafe/internal/validation"
	"github.com/notesafe/notesafe/internal/websession"
)

// Handler exposes registration, login and session endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register creates an account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var form validation.Registration
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.svc.Register(c.UserContext(), form)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(user.Public())
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Login signs the client in.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.svc.Login(c.UserContext(), websession.From(c), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"username": user.Username, "display_name": user.DisplayName()})
}

// Logout ends the session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.svc.Logout(c.UserContext(), websession.From(c)); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}

// Session reports who is signed in.
func (h *Handler) Session(c *fiber.Ctx) error {
	carrier := websession.From(c)
	if carrier.Username() == "" {
		return c.Status(http.StatusOK).JSON(fiber.Map{"authenticated": false})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"authenticated": true,
		"username":      carrier.Username(),
		"display_name":  carrier.DisplayName(),
	})
}

// Profile returns the signed-in user's record.
func (h *Handler) Profile(c *fiber.Ctx) error {
	user, err := h.svc.Profile(c.UserContext(), websession.From(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(user.Public())
}

type strengthRequest struct {
	Password string `json:"password" form:"password"`
}

// Strength returns an advisory entropy estimate for a candidate password.
func (h *Handler) Strength(c *fiber.Ctx) error {
	var req strengthRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(password.Assess(req.Password))
}
