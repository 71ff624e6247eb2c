package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/notesafe/notesafe/internal/clock"
)

// Manager owns the challenge lifecycle. Operations are serialized within
// the process so that issue and read-modify-write steps do not interleave.
type Manager struct {
	mu       sync.Mutex
	repo     Repository
	clock    clock.Clock
	ttl      time.Duration
	generate func() (string, error)
}

func NewManager(repo Repository, clk clock.Clock, ttl time.Duration) *Manager {
	if clk == nil {
		clk = clock.Real{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{repo: repo, clock: clk, ttl: ttl, generate: generateCode}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue returns the live challenge for username when it has the same
// purpose, otherwise stores a fresh one. A live challenge for another
// purpose is replaced.
func (m *Manager) Issue(ctx context.Context, username string, purpose Purpose) (Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	existing, ok, err := m.repo.Get(ctx, username)
	if err != nil {
		return Ticket{}, err
	}
	if ok && existing.Live(now) && existing.Purpose == purpose {
		t := ticketAt(existing, now)
		t.Reused = true
		return t, nil
	}

	code, err := m.generate()
	if err != nil {
		return Ticket{}, fmt.Errorf("generate code: %w", err)
	}
	c := Challenge{
		Username:     username,
		Code:         code,
		Purpose:      purpose,
		IssuedAt:     now,
		ExpiresAt:    now.Add(m.ttl),
		TimeConsumed: FormatClock(0),
	}
	if err := m.repo.Put(ctx, c); err != nil {
		return Ticket{}, fmt.Errorf("store challenge: %w", err)
	}
	return ticketAt(c, now), nil
}

// Peek reports the live challenge and records how much of its lifetime has
// been used. Expired challenges are purged and reported as ErrExpired.
func (m *Manager) Peek(ctx context.Context, username string) (Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	c, err := m.live(ctx, username, now)
	if err != nil {
		return Ticket{}, err
	}
	t := ticketAt(c, now)
	consumed := FormatClock(t.Consumed)
	found, err := m.repo.Touch(ctx, username, consumed, now)
	if err != nil {
		return Ticket{}, fmt.Errorf("refresh challenge: %w", err)
	}
	if !found {
		return Ticket{}, ErrNotFound
	}
	t.TimeConsumed = consumed
	return t, nil
}

// Verify checks code against the live challenge. An expired challenge is
// purged and reported as ErrExpired whatever the code. A wrong code leaves
// the challenge in place.
func (m *Manager) Verify(ctx context.Context, username, code string) (Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.live(ctx, username, m.now())
	if err != nil {
		return Challenge{}, err
	}
	if subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) != 1 {
		return Challenge{}, ErrMismatch
	}
	return c, nil
}

// Revoke deletes the challenge for username. Missing challenges are fine.
func (m *Manager) Revoke(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.repo.Delete(ctx, username); err != nil {
		return fmt.Errorf("revoke challenge: %w", err)
	}
	return nil
}

// Sweep purges every expired challenge and returns how many were removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.repo.DeleteExpired(ctx, m.now())
	if err != nil {
		return n, fmt.Errorf("sweep challenges: %w", err)
	}
	return n, nil
}

func (m *Manager) live(ctx context.Context, username string, now time.Time) (Challenge, error) {
	c, ok, err := m.repo.Get(ctx, username)
	if err != nil {
		return Challenge{}, err
	}
	if !ok {
		return Challenge{}, ErrNotFound
	}
	if !c.Live(now) {
		if err := m.repo.Delete(ctx, username); err != nil {
			return Challenge{}, fmt.Errorf("purge challenge: %w", err)
		}
		return Challenge{}, ErrExpired
	}
	return c, nil
}

func (m *Manager) now() time.Time {
	return m.clock.Now().UTC()
}

var codeRange = big.NewInt(900000)

// generateCode is uniform over 100000..999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeRange)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
