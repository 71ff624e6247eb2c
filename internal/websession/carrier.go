// Package websession carries the signed-in identity and any pending profile
// edit between requests.
package websession

import (
	"errors"

	"github.com/notesafe/notesafe/internal/accounts"
)

var ErrNoIdentity = errors.New("not signed in")

// Carrier is the per-client session state the flows read and write.
type Carrier interface {
	Username() string
	DisplayName() string
	SetIdentity(username, displayName string) error
	SetDisplayName(displayName string)
	PendingEdit() (accounts.PendingEdit, bool)
	SetPendingEdit(edit accounts.PendingEdit) error
	ClearPendingEdit()
	Clear() error
}

// RequireUsername returns the signed-in username or ErrNoIdentity.
func RequireUsername(c Carrier) (string, error) {
	if c == nil || c.Username() == "" {
		return "", ErrNoIdentity
	}
	return c.Username(), nil
}

// Memory is a Carrier held in process, used by tests and non-HTTP callers.
type Memory struct {
	username    string
	displayName string
	pending     *accounts.PendingEdit
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Username() string    { return m.username }
func (m *Memory) DisplayName() string { return m.displayName }

func (m *Memory) SetIdentity(username, displayName string) error {
	m.username = username
	m.displayName = displayName
	m.pending = nil
	return nil
}

func (m *Memory) SetDisplayName(displayName string) { m.displayName = displayName }

func (m *Memory) PendingEdit() (accounts.PendingEdit, bool) {
	if m.pending == nil {
		return accounts.PendingEdit{}, false
	}
	return *m.pending, true
}

func (m *Memory) SetPendingEdit(edit accounts.PendingEdit) error {
	m.pending = &edit
	return nil
}

func (m *Memory) ClearPendingEdit() { m.pending = nil }

func (m *Memory) Clear() error {
	*m = Memory{}
	return nil
}
