package infra

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const connectTimeout = 10 * time.Second

// Backends holds the optional external stores. A nil field means the
// corresponding data lives in flat files instead.
type Backends struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
}

// Connect opens whichever backends have a URL configured.
func Connect(ctx context.Context, databaseURL, redisURL string, logger *slog.Logger) (Backends, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var b Backends
	if databaseURL != "" {
		db, err := NewPostgresPool(ctx, databaseURL)
		if err != nil {
			return Backends{}, err
		}
		b.DB = db
		logger.Info("postgres connected")
	}
	if redisURL != "" {
		cache, err := NewRedisClient(ctx, redisURL)
		if err != nil {
			b.Close()
			return Backends{}, err
		}
		b.Cache = cache
		logger.Info("redis connected")
	}
	return b, nil
}

// Ping checks every configured backend.
func (b Backends) Ping(ctx context.Context) error {
	var errs []error
	if b.DB != nil {
		errs = append(errs, b.DB.Ping(ctx))
	}
	if b.Cache != nil {
		errs = append(errs, b.Cache.Ping(ctx).Err())
	}
	return errors.Join(errs...)
}

func (b Backends) Close() error {
	if b.DB != nil {
		b.DB.Close()
	}
	if b.Cache != nil {
		return b.Cache.Close()
	}
	return nil
}
