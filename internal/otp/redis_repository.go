package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/notesafe/notesafe/internal/store"
)

const challengePrefix = "otp:challenge:"

// keyGrace keeps a Redis key around a little past ExpiresAt. Liveness is
// always decided by Challenge.Live; the key TTL only bounds storage.
const keyGrace = time.Minute

// RedisRepository stores one JSON value per username.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func challengeKey(username string) string {
	return challengePrefix + username
}

func (r *RedisRepository) Get(ctx context.Context, username string) (Challenge, bool, error) {
	raw, err := r.client.Get(ctx, challengeKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Challenge{}, false, nil
	}
	if err != nil {
		return Challenge{}, false, fmt.Errorf("get challenge: %w", err)
	}
	var c Challenge
	if err := json.Unmarshal(raw, &c); err != nil {
		return Challenge{}, false, fmt.Errorf("decode challenge: %w", err)
	}
	return c, true, nil
}

func (r *RedisRepository) Put(ctx context.Context, c Challenge) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	ttl := c.ExpiresAt.Sub(c.IssuedAt) + keyGrace
	if err := r.client.Set(ctx, challengeKey(c.Username), raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}
	return nil
}

func (r *RedisRepository) Touch(ctx context.Context, username, consumed string, now time.Time) (bool, error) {
	c, ok, err := r.Get(ctx, username)
	if err != nil || !ok || !c.Live(now) {
		return false, err
	}
	c.TimeConsumed = consumed
	raw, err := json.Marshal(c)
	if err != nil {
		return false, fmt.Errorf("encode challenge: %w", err)
	}
	// XX: never recreate a key that was deleted in the meantime.
	err = r.client.SetArgs(ctx, challengeKey(username), raw, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}
	return true, nil
}

func (r *RedisRepository) Delete(ctx context.Context, username string) error {
	if err := r.client.Del(ctx, challengeKey(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrPersistence, err)
	}
	return nil
}

func (r *RedisRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	purged := 0
	iter := r.client.Scan(ctx, 0, challengePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return purged, fmt.Errorf("get challenge: %w", err)
		}
		var c Challenge
		if err := json.Unmarshal(raw, &c); err == nil && c.Live(now) {
			continue
		}
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return purged, fmt.Errorf("%w: %v", store.ErrPersistence, err)
		}
		purged++
	}
	if err := iter.Err(); err != nil {
		return purged, fmt.Errorf("scan challenges: %w", err)
	}
	return purged, nil
}
