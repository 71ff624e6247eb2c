package otp

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/notesafe/notesafe/internal/clock"
	"github.com/notesafe/notesafe/internal/store"
)

func TestFileRepositoryPersistsChallenges(t *testing.T) {
	dir := t.TempDir()
	records, err := store.OpenFile[Challenge](dir, "otp_sessions.json")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	m := NewManager(NewFileRepository(records), clock.NewFake(epoch), DefaultTTL)
	ctx := context.Background()

	ticket, err := m.Issue(ctx, "alice", PurposePasswordReset)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	raw, err := os.ReadFile(records.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{`"otp": "` + ticket.Code + `"`, `"purpose": "password_reset"`, `"time_consumed": "0:00"`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("expected %s in %s", want, raw)
		}
	}

	reopened, err := store.OpenFile[Challenge](dir, "otp_sessions.json")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok, err := NewFileRepository(reopened).Get(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Code != ticket.Code || !got.ExpiresAt.Equal(ticket.ExpiresAt) {
		t.Fatalf("unexpected challenge %+v", got)
	}
}
