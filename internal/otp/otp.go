// Package otp issues and checks six-digit one-time codes bound to a username
// and a purpose. At most one challenge exists per username. Expiry is lazy:
// a challenge past its deadline is treated as absent by every read and is
// purged when touched.
package otp

import (
	"errors"
	"fmt"
	"time"
)

type Purpose string

const (
	PurposePasswordReset Purpose = "password_reset"
	PurposeProfileUpdate Purpose = "profile_update"
)

const DefaultTTL = 180 * time.Second

var (
	ErrNotFound = errors.New("otp: no active challenge")
	ErrMismatch = errors.New("otp: incorrect code")
	// ErrExpired also matches ErrNotFound: an expired challenge no longer exists.
	ErrExpired error = expiredError{}
)

type expiredError struct{}

func (expiredError) Error() string { return "otp: challenge expired" }

func (expiredError) Is(target error) bool { return target == ErrNotFound }

// Challenge is the stored form. Timestamps are UTC.
type Challenge struct {
	Username     string    `json:"username"`
	Code         string    `json:"otp"`
	Purpose      Purpose   `json:"purpose"`
	IssuedAt     time.Time `json:"sent_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	TimeConsumed string    `json:"time_consumed"`
}

// Live is the only liveness predicate.
func (c Challenge) Live(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// Ticket is a challenge observed at a point in time.
type Ticket struct {
	Challenge
	Remaining time.Duration
	Consumed  time.Duration
	Reused    bool
}

func ticketAt(c Challenge, now time.Time) Ticket {
	remaining := c.ExpiresAt.Sub(now).Truncate(time.Second)
	if remaining < 0 {
		remaining = 0
	}
	consumed := c.ExpiresAt.Sub(c.IssuedAt) - remaining
	if consumed < 0 {
		consumed = 0
	}
	return Ticket{Challenge: c, Remaining: remaining, Consumed: consumed}
}

// FormatClock renders d as m:ss.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
