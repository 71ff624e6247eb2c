package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/notesafe/notesafe/internal/clock"
)

func newRedisRepository(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedisRepository(client), mr
}

func TestRedisRepositoryPutGet(t *testing.T) {
	repo, mr := newRedisRepository(t)
	ctx := context.Background()

	c := Challenge{
		Username:     "alice",
		Code:         "123456",
		Purpose:      PurposePasswordReset,
		IssuedAt:     epoch,
		ExpiresAt:    epoch.Add(DefaultTTL),
		TimeConsumed: "0:00",
	}
	if err := repo.Put(ctx, c); err != nil {
		t.Fatalf("put: %v", err)
	}
	if ttl := mr.TTL(challengeKey("alice")); ttl != DefaultTTL+keyGrace {
		t.Fatalf("unexpected key ttl %s", ttl)
	}

	got, ok, err := repo.Get(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Code != c.Code || !got.ExpiresAt.Equal(c.ExpiresAt) || got.Purpose != c.Purpose {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if _, ok, _ := repo.Get(ctx, "bob"); ok {
		t.Fatalf("expected no challenge for bob")
	}
}

func TestRedisRepositoryTouchDoesNotResurrect(t *testing.T) {
	repo, mr := newRedisRepository(t)
	ctx := context.Background()

	c := Challenge{Username: "alice", Code: "123456", Purpose: PurposePasswordReset, IssuedAt: epoch, ExpiresAt: epoch.Add(DefaultTTL)}
	if err := repo.Put(ctx, c); err != nil {
		t.Fatalf("put: %v", err)
	}

	found, err := repo.Touch(ctx, "alice", "0:42", epoch.Add(42*time.Second))
	if err != nil || !found {
		t.Fatalf("touch: found=%v err=%v", found, err)
	}
	got, _, _ := repo.Get(ctx, "alice")
	if got.TimeConsumed != "0:42" {
		t.Fatalf("expected 0:42, got %s", got.TimeConsumed)
	}
	if ttl := mr.TTL(challengeKey("alice")); ttl != DefaultTTL+keyGrace {
		t.Fatalf("touch must keep the key ttl, got %s", ttl)
	}

	found, err = repo.Touch(ctx, "alice", "3:00", epoch.Add(DefaultTTL))
	if err != nil || found {
		t.Fatalf("touch past expiry: found=%v err=%v", found, err)
	}

	if err := repo.Delete(ctx, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	found, err = repo.Touch(ctx, "alice", "0:50", epoch.Add(50*time.Second))
	if err != nil || found {
		t.Fatalf("touch after delete: found=%v err=%v", found, err)
	}
	if mr.Exists(challengeKey("alice")) {
		t.Fatalf("touch recreated a deleted challenge")
	}
}

func TestRedisRepositoryDeleteExpired(t *testing.T) {
	repo, _ := newRedisRepository(t)
	ctx := context.Background()

	for i, name := range []string{"alice", "bob", "carol"} {
		issued := epoch.Add(time.Duration(i) * 100 * time.Second)
		c := Challenge{Username: name, Code: "111111", Purpose: PurposePasswordReset, IssuedAt: issued, ExpiresAt: issued.Add(DefaultTTL)}
		if err := repo.Put(ctx, c); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}

	n, err := repo.DeleteExpired(ctx, epoch.Add(250*time.Second))
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	if _, ok, _ := repo.Get(ctx, "alice"); ok {
		t.Fatalf("alice should be gone")
	}
	if _, ok, _ := repo.Get(ctx, "carol"); !ok {
		t.Fatalf("carol should remain")
	}
}

func TestManagerOverRedis(t *testing.T) {
	repo, _ := newRedisRepository(t)
	clk := clock.NewFake(epoch)
	m := NewManager(repo, clk, DefaultTTL)
	ctx := context.Background()

	ticket, err := m.Issue(ctx, "alice", PurposePasswordReset)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	again, err := m.Issue(ctx, "alice", PurposePasswordReset)
	if err != nil || again.Code != ticket.Code {
		t.Fatalf("expected reuse over redis, got %+v err=%v", again, err)
	}

	clk.Advance(DefaultTTL)
	if _, err := m.Verify(ctx, "alice", ticket.Code); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}
