package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/notesafe/notesafe/internal/accounts"
	"github.com/notesafe/notesafe/internal/auth"
	"github.com/notesafe/notesafe/internal/clock"
	"github.com/notesafe/notesafe/internal/config"
	"github.com/notesafe/notesafe/internal/middleware"
	"github.com/notesafe/notesafe/internal/notes"
	"github.com/notesafe/notesafe/internal/notification"
	"github.com/notesafe/notesafe/internal/otp"
	"github.com/notesafe/notesafe/internal/password"
	"github.com/notesafe/notesafe/internal/recovery"
	"github.com/notesafe/notesafe/internal/store"
	"github.com/notesafe/notesafe/internal/validation"
	"github.com/notesafe/notesafe/internal/websession"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// are optional; without them users and OTP challenges live in DATA_DIR.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Clock and Notifier override the real clock and the configured
	// delivery channel.
	Clock    clock.Clock
	Notifier notification.Notifier
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}

	rules := validation.DefaultRules()
	if d.Cfg.RulesFile != "" {
		loaded, err := validation.LoadRules(d.Cfg.RulesFile)
		if err != nil {
			return err
		}
		rules = loaded
	}
	engine := validation.New(rules)

	hasher, err := password.New(d.Cfg.PasswordHasher)
	if err != nil {
		return err
	}
	users, err := userRepository(d)
	if err != nil {
		return err
	}
	challenges, err := otpRepository(d)
	if err != nil {
		return err
	}
	noteRecords, err := store.OpenFile[notes.Note](d.Cfg.DataDir, "notes.json")
	if err != nil {
		return fmt.Errorf("open notes: %w", err)
	}

	otps := otp.NewManager(challenges, d.Clock, d.Cfg.OTPTTL)
	authSvc := auth.NewService(users, engine, hasher, d.Clock, d.Logger)
	recoverySvc := recovery.NewService(users, otps, engine, hasher, notifier(d), d.Clock, d.Logger)
	notesSvc := notes.NewService(notes.NewFileRepository(noteRecords), d.Clock, d.Logger)

	sessions := session.New(session.Config{
		Expiration:     d.Cfg.SessionTTL,
		KeyLookup:      "cookie:" + d.Cfg.SessionCookieName,
		CookieSecure:   d.Cfg.SessionCookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	})

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	api := app.Group("/api/v1", websession.Middleware(sessions))
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	authHandler := auth.NewHandler(authSvc)
	recoveryHandler := recovery.NewHandler(recoverySvc, d.Cfg.OTPEcho)
	notesHandler := notes.NewHandler(notesSvc)

	// Public routes
	RegisterAuthRoutes(api, authHandler, middleware.RateLimit(d.Cache, "login", "username", d.Cfg.LoginRateLimit))
	RegisterPasswordRoutes(api, authHandler, recoveryHandler, middleware.RateLimit(d.Cache, "forgot", "username", d.Cfg.ForgotRateLimit))

	// Session-bound routes
	protected := api.Group("", middleware.RequireSession())
	RegisterProfileRoutes(protected, authHandler, recoveryHandler)
	RegisterNotesRoutes(protected, notesHandler, middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))

	return nil
}

func userRepository(d Deps) (accounts.Repository, error) {
	if d.DB != nil {
		repo := accounts.NewPostgresRepository(d.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	}
	records, err := store.OpenFile[accounts.User](d.Cfg.DataDir, "users.json")
	if err != nil {
		return nil, fmt.Errorf("open users: %w", err)
	}
	return accounts.NewFileRepository(records), nil
}

func otpRepository(d Deps) (otp.Repository, error) {
	if d.Cache != nil {
		return otp.NewRedisRepository(d.Cache), nil
	}
	records, err := store.OpenFile[otp.Challenge](d.Cfg.DataDir, "otp_sessions.json")
	if err != nil {
		return nil, fmt.Errorf("open otp sessions: %w", err)
	}
	return otp.NewFileRepository(records), nil
}

func notifier(d Deps) notification.Notifier {
	switch {
	case d.Notifier != nil:
		return d.Notifier
	case d.Cfg.SMTP.Host != "":
		s := d.Cfg.SMTP
		return notification.NewMailNotifier(s.Host, s.Port, s.Username, s.Password, s.From)
	default:
		return notification.NewLoggerNotifier(d.Logger)
	}
}
