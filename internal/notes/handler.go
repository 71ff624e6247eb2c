package notes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/notesafe/notesafe/internal/websession"
)

// Handler exposes the signed-in user's notes.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(c *fiber.Ctx) error {
	username, err := websession.RequireUsername(websession.From(c))
	if err != nil {
		return err
	}
	listing, err := h.svc.List(c.UserContext(), username)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(listing)
}

func (h *Handler) Add(c *fiber.Ctx) error {
	username, err := websession.RequireUsername(websession.From(c))
	if err != nil {
		return err
	}
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	note, err := h.svc.Add(c.UserContext(), username, in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(note)
}

func (h *Handler) Edit(c *fiber.Ctx) error {
	username, id, err := target(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	note, err := h.svc.Edit(c.UserContext(), username, id, in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(note)
}

func (h *Handler) Archive(c *fiber.Ctx) error {
	username, id, err := target(c)
	if err != nil {
		return err
	}
	note, err := h.svc.Archive(c.UserContext(), username, id)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(note)
}

func (h *Handler) Restore(c *fiber.Ctx) error {
	username, id, err := target(c)
	if err != nil {
		return err
	}
	note, err := h.svc.Restore(c.UserContext(), username, id)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(note)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	username, id, err := target(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.UserContext(), username, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// target resolves the session owner and the :id route parameter. A
// malformed id is treated as a missing note.
func target(c *fiber.Ctx) (string, int, error) {
	username, err := websession.RequireUsername(websession.From(c))
	if err != nil {
		return "", 0, err
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return "", 0, ErrNotFound
	}
	return username, id, nil
}
