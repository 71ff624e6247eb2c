package websession

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/notesafe/notesafe/internal/accounts"
)

const (
	keyUsername    = "username"
	keyDisplayName = "display_name"
	keyPendingEdit = "pending_profile_edit"

	localsKey = "websession"
)

// Session adapts a fiber cookie session to Carrier. Save must be called
// once at the end of the request; Middleware does that.
type Session struct {
	sess      *session.Session
	destroyed bool
	dirty     bool
}

func (s *Session) Username() string    { return s.str(keyUsername) }
func (s *Session) DisplayName() string { return s.str(keyDisplayName) }

// SetIdentity rotates the session id before storing the identity.
func (s *Session) SetIdentity(username, displayName string) error {
	if err := s.sess.Regenerate(); err != nil {
		return fmt.Errorf("regenerate session: %w", err)
	}
	s.destroyed = false
	s.sess.Set(keyUsername, username)
	s.sess.Set(keyDisplayName, displayName)
	s.sess.Delete(keyPendingEdit)
	s.dirty = true
	return nil
}

func (s *Session) SetDisplayName(displayName string) {
	s.sess.Set(keyDisplayName, displayName)
	s.dirty = true
}

func (s *Session) PendingEdit() (accounts.PendingEdit, bool) {
	raw := s.str(keyPendingEdit)
	if raw == "" {
		return accounts.PendingEdit{}, false
	}
	var edit accounts.PendingEdit
	if err := json.Unmarshal([]byte(raw), &edit); err != nil {
		return accounts.PendingEdit{}, false
	}
	return edit, true
}

func (s *Session) SetPendingEdit(edit accounts.PendingEdit) error {
	raw, err := json.Marshal(edit)
	if err != nil {
		return fmt.Errorf("encode pending edit: %w", err)
	}
	s.sess.Set(keyPendingEdit, string(raw))
	s.dirty = true
	return nil
}

func (s *Session) ClearPendingEdit() {
	s.sess.Delete(keyPendingEdit)
	s.dirty = true
}

func (s *Session) Clear() error {
	if err := s.sess.Destroy(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	s.destroyed = true
	s.dirty = false
	return nil
}

// Save persists changes. A destroyed or untouched session is not written.
func (s *Session) Save() error {
	if s.destroyed || !s.dirty {
		return nil
	}
	return s.sess.Save()
}

func (s *Session) str(key string) string {
	v, _ := s.sess.Get(key).(string)
	return v
}

// Middleware loads the cookie session for each request, exposes it through
// From, and saves it after the handler chain returns.
func Middleware(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		carrier := &Session{sess: sess}
		c.Locals(localsKey, carrier)

		chainErr := c.Next()
		if err := carrier.Save(); err != nil && chainErr == nil {
			return fmt.Errorf("save session: %w", err)
		}
		return chainErr
	}
}

// From returns the request's carrier. Without Middleware it returns an
// empty in-memory carrier.
func From(c *fiber.Ctx) Carrier {
	if s, ok := c.Locals(localsKey).(*Session); ok {
		return s
	}
	return NewMemory()
}
