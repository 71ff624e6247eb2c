package otp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/notesafe/notesafe/internal/clock"
)

var epoch = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *FileRepository, *clock.Fake) {
	t.Helper()
	repo := NewMemoryRepository()
	clk := clock.NewFake(epoch)
	m := NewManager(repo, clk, DefaultTTL)
	seq := 0
	m.generate = func() (string, error) {
		seq++
		return fmt.Sprintf("%06d", 100000+seq), nil
	}
	return m, repo, clk
}

func TestIssueReusesLiveChallenge(t *testing.T) {
	m, _, clk := newTestManager(t)
	ctx := context.Background()

	first, err := m.Issue(ctx, "alice", PurposePasswordReset)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first.Reused {
		t.Fatalf("first issue must not be reused")
	}
	if first.Remaining != DefaultTTL {
		t.Fatalf("expected %s remaining, got %s", DefaultTTL, first.Remaining)
	}

	clk.Advance(30 * time.Second)
	second, err := m.Issue(ctx, "alice", PurposePasswordReset)
	if err != nil {
		t.Fatalf("issue again: %v", err)
	}
	if !second.Reused || second.Code != first.Code {
		t.Fatalf("expected reuse of %s, got %+v", first.Code, second)
	}
	if !second.ExpiresAt.Equal(first.ExpiresAt) {
		t.Fatalf("reuse must not extend expiry")
	}
	if second.Remaining != 150*time.Second {
		t.Fatalf("expected 150s remaining, got %s", second.Remaining)
	}
}

func TestIssueAfterExpiryCreatesFreshCode(t *testing.T) {
	m, _, clk := newTestManager(t)
	ctx := context.Background()

	first, _ := m.Issue(ctx, "alice", PurposePasswordReset)
	clk.Advance(DefaultTTL)
	second, err := m.Issue(ctx, "alice", PurposePasswordReset)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if second.Reused || second.Code == first.Code {
		t.Fatalf("expected fresh challenge, got %+v", second)
	}
}

func TestIssueOtherPurposeSupersedes(t *testing.T) {
	m, repo, _ := newTestManager(t)
	ctx := context.Background()

	reset, _ := m.Issue(ctx, "alice", PurposePasswordReset)
	profile, err := m.Issue(ctx, "alice", PurposeProfileUpdate)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if profile.Reused || profile.Code == reset.Code || profile.Purpose != PurposeProfileUpdate {
		t.Fatalf("expected superseding profile challenge, got %+v", profile)
	}

	all, _ := repo.records.Load()
	if len(all) != 1 {
		t.Fatalf("expected one challenge per username, got %d", len(all))
	}
}

func TestVerifyAfterExpiryReportsExpired(t *testing.T) {
	m, repo, clk := newTestManager(t)
	ctx := context.Background()

	ticket, _ := m.Issue(ctx, "alice", PurposePasswordReset)
	clk.Set(ticket.ExpiresAt)

	_, err := m.Verify(ctx, "alice", ticket.Code)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired must also match ErrNotFound")
	}
	if _, ok, _ := repo.Get(ctx, "alice"); ok {
		t.Fatalf("expired challenge should have been purged")
	}

	_, err = m.Verify(ctx, "alice", ticket.Code)
	if !errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) {
		t.Fatalf("expected plain ErrNotFound after purge, got %v", err)
	}
}

func TestVerifyMismatchKeepsChallenge(t *testing.T) {
	m, _, clk := newTestManager(t)
	ctx := context.Background()

	ticket, _ := m.Issue(ctx, "alice", PurposeProfileUpdate)
	if _, err := m.Verify(ctx, "alice", "000000"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}

	clk.Advance(DefaultTTL - time.Second)
	got, err := m.Verify(ctx, "alice", ticket.Code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Purpose != PurposeProfileUpdate {
		t.Fatalf("unexpected purpose %q", got.Purpose)
	}
}

func TestPeekRecordsTimeConsumed(t *testing.T) {
	m, repo, clk := newTestManager(t)
	ctx := context.Background()

	m.Issue(ctx, "alice", PurposePasswordReset)
	clk.Advance(65 * time.Second)

	ticket, err := m.Peek(ctx, "alice")
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if ticket.TimeConsumed != "1:05" {
		t.Fatalf("expected 1:05 consumed, got %s", ticket.TimeConsumed)
	}
	if FormatClock(ticket.Remaining) != "1:55" {
		t.Fatalf("expected 1:55 remaining, got %s", FormatClock(ticket.Remaining))
	}

	stored, ok, _ := repo.Get(ctx, "alice")
	if !ok || stored.TimeConsumed != "1:05" {
		t.Fatalf("expected stored time_consumed 1:05, got %+v", stored)
	}
}

func TestPeekAfterExpiryPurges(t *testing.T) {
	m, repo, clk := newTestManager(t)
	ctx := context.Background()

	m.Issue(ctx, "alice", PurposePasswordReset)
	clk.Advance(DefaultTTL + time.Second)

	if _, err := m.Peek(ctx, "alice"); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "alice"); ok {
		t.Fatalf("peek must not keep an expired challenge")
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	m.Issue(ctx, "alice", PurposePasswordReset)
	if err := m.Revoke(ctx, "alice"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := m.Revoke(ctx, "alice"); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if _, err := m.Peek(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSweepPurgesOnlyExpired(t *testing.T) {
	m, _, clk := newTestManager(t)
	ctx := context.Background()

	m.Issue(ctx, "alice", PurposePasswordReset)
	clk.Advance(100 * time.Second)
	m.Issue(ctx, "bob", PurposePasswordReset)
	clk.Advance(100 * time.Second)

	n, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	if _, err := m.Peek(ctx, "bob"); err != nil {
		t.Fatalf("bob should still be live: %v", err)
	}
}

func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 || code < "100000" || code > "999999" {
			t.Fatalf("code out of range: %q", code)
		}
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "0:00",
		5 * time.Second:         "0:05",
		65 * time.Second:        "1:05",
		180 * time.Second:       "3:00",
		1500 * time.Millisecond: "0:01",
		-3 * time.Second:        "0:00",
	}
	for d, want := range cases {
		if got := FormatClock(d); got != want {
			t.Fatalf("FormatClock(%s) = %s, want %s", d, got, want)
		}
	}
}
