package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/notesafe/notesafe/internal/accounts"
	"github.com/notesafe/notesafe/internal/clock"
	"github.com/notesafe/notesafe/internal/password"
	"github.com/notesafe/notesafe/internal/validation"
	"github.com/notesafe/notesafe/internal/websession"
)

// ErrInvalidCredentials is returned for an unknown identifier and for a
// wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

var duplicateReasons = map[accounts.Field]string{
	accounts.FieldUsername: "Username already exists.",
	accounts.FieldEmail:    "Email already registered.",
	accounts.FieldContact:  "Contact number already registered.",
}

// Service registers accounts and signs users in and out.
type Service struct {
	users  accounts.Repository
	rules  *validation.Engine
	hasher password.Hasher
	clock  clock.Clock
	logger *slog.Logger
}

func NewService(users accounts.Repository, rules *validation.Engine, hasher password.Hasher, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{users: users, rules: rules, hasher: hasher, clock: clk, logger: logger}
}

// Register validates the form, checks uniqueness and stores the account.
// Nothing is written unless every check passes.
func (s *Service) Register(ctx context.Context, form validation.Registration) (accounts.User, error) {
	form = form.Normalized()
	now := s.clock.Now()

	derived, err := s.rules.CheckRegistration(form, now)
	if err != nil {
		return accounts.User{}, err
	}

	for _, f := range []struct {
		field accounts.Field
		value string
	}{
		{accounts.FieldUsername, form.Username},
		{accounts.FieldEmail, form.Email},
		{accounts.FieldContact, derived.Contact},
	} {
		taken, err := s.users.Taken(ctx, f.field, f.value, "")
		if err != nil {
			return accounts.User{}, fmt.Errorf("check %s: %w", f.field, err)
		}
		if taken {
			return accounts.User{}, validation.Reject(string(f.field), duplicateReasons[f.field])
		}
	}

	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		return accounts.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := accounts.User{
		ID:              uuid.NewString(),
		Username:        form.Username,
		DisplayUsername: form.Username,
		FirstName:       form.FirstName,
		MiddleName:      form.MiddleName,
		LastName:        form.LastName,
		DOB:             form.DOB,
		Age:             derived.Age,
		Contact:         derived.Contact,
		Province:        form.Province,
		City:            form.City,
		Barangay:        form.Barangay,
		Zipcode:         form.Zipcode,
		Street:          form.Street,
		Email:           form.Email,
		PasswordHash:    hash,
		CreatedAt:       now.UTC(),
		IsActive:        true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		var dup *accounts.DuplicateError
		if errors.As(err, &dup) {
			return accounts.User{}, validation.Reject(string(dup.Field), duplicateReasons[dup.Field])
		}
		return accounts.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "username", user.Username)
	return user, nil
}

// Login resolves identifier as a username or email and checks the password.
// On success the carrier holds the username and display name.
func (s *Service) Login(ctx context.Context, carrier websession.Carrier, identifier, plain string) (accounts.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || plain == "" {
		return accounts.User{}, validation.Reject("username", "Please fill in all fields.")
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if errors.Is(err, accounts.ErrUserNotFound) {
		s.logger.InfoContext(ctx, "login failed", "outcome", "unknown_identifier")
		return accounts.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return accounts.User{}, fmt.Errorf("find user: %w", err)
	}
	if !s.hasher.Verify(user.PasswordHash, plain) {
		s.logger.InfoContext(ctx, "login failed", "username", user.Username, "outcome", "wrong_password")
		return accounts.User{}, ErrInvalidCredentials
	}

	if err := carrier.SetIdentity(user.Username, user.DisplayName()); err != nil {
		return accounts.User{}, err
	}
	s.logger.InfoContext(ctx, "login succeeded", "username", user.Username)
	return user, nil
}

// Logout clears the carrier. It is safe to call without a signed-in user.
func (s *Service) Logout(ctx context.Context, carrier websession.Carrier) error {
	username := carrier.Username()
	if err := carrier.Clear(); err != nil {
		return err
	}
	if username != "" {
		s.logger.InfoContext(ctx, "logout", "username", username)
	}
	return nil
}

// Profile returns the signed-in user's record.
func (s *Service) Profile(ctx context.Context, carrier websession.Carrier) (accounts.User, error) {
	username, err := websession.RequireUsername(carrier)
	if err != nil {
		return accounts.User{}, err
	}
	return s.users.FindByUsername(ctx, username)
}
