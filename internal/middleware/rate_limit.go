package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Minute

// RateLimit caps requests per minute for one scope, keyed by the named body
// field (JSON or form) and falling back to the client IP. Without Redis it
// is a no-op, and cache errors fail open.
func RateLimit(cache *redis.Client, scope, field string, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		subject := strings.ToLower(strings.TrimSpace(bodyField(c, field)))
		if subject == "" {
			subject = c.IP()
		}
		key := "rl:" + scope + ":" + subject
		ctx := c.UserContext()

		cnt, err := cache.Incr(ctx, key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(ctx, key, rateLimitWindow)
		}
		if cnt > int64(maxPerMin) {
			if ttl, err := cache.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
			}
			return fiber.NewError(http.StatusTooManyRequests, "Too many attempts. Please try again later.")
		}
		return c.Next()
	}
}

func bodyField(c *fiber.Ctx, field string) string {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var body map[string]any
		if err := json.Unmarshal(c.Body(), &body); err == nil {
			v, _ := body[field].(string)
			return v
		}
		return ""
	}
	return c.FormValue(field)
}
