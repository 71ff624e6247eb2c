package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/notesafe/notesafe/internal/notes"
)

// RegisterNotesRoutes wires note endpoints. Creation honours Idempotency-Key.
func RegisterNotesRoutes(r fiber.Router, h *notes.Handler, idempotency fiber.Handler) {
	group := r.Group("/notes")
	group.Get("", h.List)
	group.Post("", idempotency, h.Add)
	group.Put("/:id", h.Edit)
	group.Post("/:id/archive", h.Archive)
	group.Post("/:id/restore", h.Restore)
	group.Delete("/:id", h.Delete)
}
