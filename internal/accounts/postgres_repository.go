package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notesafe/notesafe/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id               UUID PRIMARY KEY,
    username         TEXT NOT NULL,
    display_username TEXT NOT NULL DEFAULT '',
    first_name       TEXT NOT NULL,
    middle_name      TEXT NOT NULL DEFAULT '',
    last_name        TEXT NOT NULL,
    dob              TEXT NOT NULL,
    age              INTEGER NOT NULL,
    contact          TEXT NOT NULL,
    province         TEXT NOT NULL,
    city             TEXT NOT NULL,
    barangay         TEXT NOT NULL,
    zipcode          TEXT NOT NULL DEFAULT '',
    street           TEXT NOT NULL DEFAULT '',
    email            TEXT NOT NULL,
    password_hash    TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ,
    last_login       TIMESTAMPTZ,
    is_active        BOOLEAN NOT NULL DEFAULT TRUE,
    login_attempts   INTEGER NOT NULL DEFAULT 0,
    failed_attempts  INTEGER NOT NULL DEFAULT 0,
    lockout_until    BIGINT NOT NULL DEFAULT 0
);
CREATE UNIQUE INDEX IF NOT EXISTS users_username_key ON users (lower(username));
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email)) WHERE is_active;
CREATE UNIQUE INDEX IF NOT EXISTS users_contact_key ON users (contact) WHERE is_active;
`

const userColumns = `id, username, display_username, first_name, middle_name, last_name, dob, age,
    contact, province, city, barangay, zipcode, street, email, password_hash,
    created_at, updated_at, last_login, is_active, login_attempts, failed_attempts, lockout_until`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the users table and its unique indexes when missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	id, err := uuid.Parse(user.ID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		id, user.Username, user.DisplayUsername, user.FirstName, user.MiddleName, user.LastName, user.DOB, user.Age,
		user.Contact, user.Province, user.City, user.Barangay, user.Zipcode, user.Street, user.Email, user.PasswordHash,
		user.CreatedAt.UTC(), user.UpdatedAt, user.LastLogin, user.IsActive, user.LoginAttempts, user.FailedAttempts, user.LockoutUntil)
	return translate(err)
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
	return scanUser(row)
}

func (r *PostgresRepository) FindByIdentifier(ctx context.Context, identifier string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users
        WHERE lower(username) = lower($1) OR lower(email) = lower($1)
        ORDER BY created_at LIMIT 1`, identifier)
	return scanUser(row)
}

func (r *PostgresRepository) Update(ctx context.Context, user User) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET
        display_username = $2, first_name = $3, middle_name = $4, last_name = $5, dob = $6, age = $7,
        contact = $8, province = $9, city = $10, barangay = $11, zipcode = $12, street = $13, email = $14,
        password_hash = $15, updated_at = $16, last_login = $17, is_active = $18, login_attempts = $19,
        failed_attempts = $20, lockout_until = $21
        WHERE lower(username) = lower($1)`,
		user.Username, user.DisplayUsername, user.FirstName, user.MiddleName, user.LastName, user.DOB, user.Age,
		user.Contact, user.Province, user.City, user.Barangay, user.Zipcode, user.Street, user.Email,
		user.PasswordHash, user.UpdatedAt, user.LastLogin, user.IsActive, user.LoginAttempts,
		user.FailedAttempts, user.LockoutUntil)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) Taken(ctx context.Context, field Field, value, exceptUsername string) (bool, error) {
	var cond string
	switch field {
	case FieldUsername:
		cond = "lower(username) = lower($1)"
	case FieldEmail:
		cond = "lower(email) = lower($1)"
	case FieldContact:
		cond = "contact = $1"
	default:
		return false, fmt.Errorf("unknown field %q", field)
	}
	var taken bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users
        WHERE is_active AND `+cond+` AND ($2 = '' OR lower(username) <> lower($2)))`,
		value, exceptUsername).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", field, err)
	}
	return taken, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id   uuid.UUID
		user User
	)
	err := row.Scan(&id, &user.Username, &user.DisplayUsername, &user.FirstName, &user.MiddleName, &user.LastName,
		&user.DOB, &user.Age, &user.Contact, &user.Province, &user.City, &user.Barangay, &user.Zipcode, &user.Street,
		&user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt, &user.LastLogin, &user.IsActive,
		&user.LoginAttempts, &user.FailedAttempts, &user.LockoutUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// translate maps unique violations to DuplicateError and write failures to
// store.ErrPersistence.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return &DuplicateError{Field: FieldEmail}
		case strings.Contains(pgErr.ConstraintName, "contact"):
			return &DuplicateError{Field: FieldContact}
		default:
			return &DuplicateError{Field: FieldUsername}
		}
	}
	return fmt.Errorf("%w: %v", store.ErrPersistence, err)
}
