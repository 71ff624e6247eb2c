package infra

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/notesafe/notesafe/internal/logging"
)

func TestConnectWithoutURLsIsFileMode(t *testing.T) {
	b, err := Connect(context.Background(), "", "", logging.Discard())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if b.DB != nil || b.Cache != nil {
		t.Fatalf("expected no backends, got %+v", b)
	}
	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("ping with no backends: %v", err)
	}
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	b, err := Connect(context.Background(), "", "redis://"+mr.Addr()+"/0", logging.Discard())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer b.Close()
	if b.Cache == nil {
		t.Fatalf("expected redis client")
	}
	if err := b.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	mr.Close()
	if err := b.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail after redis stopped")
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "", "not a url", logging.Discard()); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := Connect(context.Background(), "postgres://%zz", "", logging.Discard()); err == nil {
		t.Fatalf("expected parse error")
	}
}
