package middleware

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/notesafe/notesafe/internal/websession"
)

func TestRequestIDKeepsValidAndReplacesInvalid(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(requestIDHeader).(string))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "trace-42")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := resp.Header.Get(requestIDHeader); got != "trace-42" {
		t.Fatalf("expected incoming id to be kept, got %q", got)
	}

	req = httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := resp.Header.Get(requestIDHeader); len(got) != 36 {
		t.Fatalf("expected a generated uuid, got %q", got)
	}
}

func TestRequireSession(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, websession.ErrNoIdentity) {
				return c.SendStatus(fiber.StatusUnauthorized)
			}
			return c.SendStatus(fiber.StatusInternalServerError)
		},
	})
	app.Use(RequireSession())
	app.Get("/private", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/private", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func newRateLimitApp(t *testing.T, max int) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	app := fiber.New()
	app.Post("/login", RateLimit(cache, "login", "username", max), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, mr
}

func attempt(t *testing.T, app *fiber.App, contentType, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, contentType)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestRateLimitPerIdentifier(t *testing.T) {
	app, mr := newRateLimitApp(t, 2)

	for i := 0; i < 2; i++ {
		if got := attempt(t, app, fiber.MIMEApplicationJSON, `{"username":"Alice2024"}`); got != fiber.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i+1, got)
		}
	}
	if got := attempt(t, app, fiber.MIMEApplicationForm, "username=alice2024"); got != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 for third attempt, got %d", got)
	}
	if got := attempt(t, app, fiber.MIMEApplicationJSON, `{"username":"bob_ross"}`); got != fiber.StatusOK {
		t.Fatalf("other identifiers must not be limited, got %d", got)
	}

	if ttl := mr.TTL("rl:login:alice2024"); ttl <= 0 {
		t.Fatalf("expected limiter key to expire, ttl %v", ttl)
	}
	mr.FastForward(rateLimitWindow)
	if got := attempt(t, app, fiber.MIMEApplicationJSON, `{"username":"alice2024"}`); got != fiber.StatusOK {
		t.Fatalf("expected window to reset, got %d", got)
	}
}

func TestRateLimitWithoutCacheIsNoop(t *testing.T) {
	app := fiber.New()
	app.Post("/login", RateLimit(nil, "login", "username", 1), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	for i := 0; i < 3; i++ {
		if got := attempt(t, app, fiber.MIMEApplicationJSON, `{"username":"alice2024"}`); got != fiber.StatusOK {
			t.Fatalf("expected 200 got %d", got)
		}
	}
}
