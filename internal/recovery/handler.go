package recovery

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/notesafe/notesafe/internal/otp"
	"github.com/notesafe/notesafe/internal/validation"
	"github.com/notesafe/notesafe/internal/websession"
)

// Handler exposes password reset, password change and profile edit
// endpoints. With echo set, responses include the code itself, which is
// only meant for local development.
type Handler struct {
	svc  *Service
	echo bool
}

func NewHandler(svc *Service, echo bool) *Handler {
	return &Handler{svc: svc, echo: echo}
}

type ticketResponse struct {
	Username      string      `json:"username"`
	Purpose       otp.Purpose `json:"purpose"`
	ExpiresAt     time.Time   `json:"expires_at"`
	TimeRemaining string      `json:"time_remaining"`
	TimeConsumed  string      `json:"time_consumed"`
	Reused        bool        `json:"reused"`
	OTP           string      `json:"otp,omitempty"`
}

func (h *Handler) ticket(t otp.Ticket) ticketResponse {
	resp := ticketResponse{
		Username:      t.Username,
		Purpose:       t.Purpose,
		ExpiresAt:     t.ExpiresAt,
		TimeRemaining: otp.FormatClock(t.Remaining),
		TimeConsumed:  otp.FormatClock(t.Consumed),
		Reused:        t.Reused,
	}
	if h.echo {
		resp.OTP = t.Code
	}
	return resp
}

type forgotRequest struct {
	Username string `json:"username" form:"username"`
}

// Forgot issues a reset code for a username or email.
func (h *Handler) Forgot(c *fiber.Ctx) error {
	var req forgotRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.StartReset(c.UserContext(), req.Username)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(h.ticket(t))
}

// ResetStatus reports the live reset challenge for ?username=.
func (h *Handler) ResetStatus(c *fiber.Ctx) error {
	t, err := h.svc.ResetStatus(c.UserContext(), c.Query("username"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(h.ticket(t))
}

// Reset completes a password reset.
func (h *Handler) Reset(c *fiber.Ctx) error {
	var form ResetForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CompleteReset(c.UserContext(), form); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "password_updated"})
}

// StartPasswordChange issues a code to the signed-in user.
func (h *Handler) StartPasswordChange(c *fiber.Ctx) error {
	t, err := h.svc.StartPasswordChange(c.UserContext(), websession.From(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(h.ticket(t))
}

// ChangePassword completes the signed-in password change.
func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	var form ResetForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CompletePasswordChange(c.UserContext(), websession.From(c), form); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "password_updated"})
}

// SubmitProfile parks a validated edit and issues a confirmation code.
func (h *Handler) SubmitProfile(c *fiber.Ctx) error {
	var form validation.Profile
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.SubmitProfile(c.UserContext(), websession.From(c), form)
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(h.ticket(t))
}

// ProfileStatus reports the pending edit's challenge.
func (h *Handler) ProfileStatus(c *fiber.Ctx) error {
	t, err := h.svc.ProfileStatus(c.UserContext(), websession.From(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(h.ticket(t))
}

type confirmRequest struct {
	OTP string `json:"otp" form:"otp"`
}

// ConfirmProfile applies the pending edit.
func (h *Handler) ConfirmProfile(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.svc.ConfirmProfile(c.UserContext(), websession.From(c), req.OTP)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(user.Public())
}

// CancelProfile discards the pending edit.
func (h *Handler) CancelProfile(c *fiber.Ctx) error {
	if err := h.svc.CancelProfile(c.UserContext(), websession.From(c)); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "cancelled"})
}
