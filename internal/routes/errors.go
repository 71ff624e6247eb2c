package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/notesafe/notesafe/internal/accounts"
	"github.com/notesafe/notesafe/internal/auth"
	"github.com/notesafe/notesafe/internal/notes"
	"github.com/notesafe/notesafe/internal/otp"
	"github.com/notesafe/notesafe/internal/recovery"
	"github.com/notesafe/notesafe/internal/store"
	"github.com/notesafe/notesafe/internal/validation"
	"github.com/notesafe/notesafe/internal/websession"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ErrorHandler turns handler errors into JSON responses. It is the only
// place that maps domain errors to HTTP statuses.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			requestID, _ := c.Locals("X-Request-ID").(string)
			logger.ErrorContext(c.UserContext(), "request error",
				slog.String("path", c.Path()),
				slog.String("request_id", requestID),
				slog.Any("error", err))
		}
		return c.Status(status).JSON(body)
	}
}

func classify(err error) (int, errorResponse) {
	var rej *validation.Rejection
	var dup *accounts.DuplicateError
	var fe *fiber.Error

	switch {
	case errors.As(err, &rej):
		return http.StatusUnprocessableEntity, errorResponse{Error: rej.Reason, Field: rej.Field}
	case errors.Is(err, otp.ErrExpired):
		return http.StatusGone, errorResponse{Error: "OTP expired. Please request a new one.", Field: "otp"}
	case errors.Is(err, otp.ErrMismatch):
		return http.StatusBadRequest, errorResponse{Error: "Incorrect OTP. Please try again.", Field: "otp"}
	case errors.Is(err, otp.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "No active OTP found. Please request a new one.", Field: "otp"}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "Invalid username/email or password."}
	case errors.Is(err, websession.ErrNoIdentity):
		return http.StatusUnauthorized, errorResponse{Error: "Please log in first."}
	case errors.Is(err, accounts.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "Username/email not found.", Field: "username"}
	case errors.Is(err, recovery.ErrNoPendingEdit):
		return http.StatusNotFound, errorResponse{Error: "No pending profile update. Please submit your changes again."}
	case errors.Is(err, notes.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "Note not found."}
	case errors.As(err, &dup):
		return http.StatusConflict, errorResponse{Error: dup.Error(), Field: string(dup.Field)}
	case errors.Is(err, store.ErrPersistence):
		return http.StatusServiceUnavailable, errorResponse{Error: "Failed to save changes. Please try again."}
	case errors.As(err, &fe):
		return fe.Code, errorResponse{Error: fe.Message}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "Internal server error."}
	}
}
