package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/notesafe/notesafe/internal/accounts"
	"github.com/notesafe/notesafe/internal/clock"
	"github.com/notesafe/notesafe/internal/notification"
	"github.com/notesafe/notesafe/internal/otp"
	"github.com/notesafe/notesafe/internal/password"
	"github.com/notesafe/notesafe/internal/validation"
	"github.com/notesafe/notesafe/internal/websession"
)

var ErrNoPendingEdit = errors.New("no pending profile update")

var profileDuplicateReasons = map[accounts.Field]string{
	accounts.FieldEmail:   "Email already registered by another user.",
	accounts.FieldContact: "Contact number already registered by another user.",
}

// ResetForm completes a password reset.
type ResetForm struct {
	Username    string `json:"username" form:"username"`
	Code        string `json:"otp" form:"otp"`
	NewPassword string `json:"new_password" form:"new_password"`
	Confirm     string `json:"confirm" form:"confirm"`
}

// Service runs the OTP-confirmed flows: password reset for signed-out
// users, password change and profile edits for signed-in ones.
type Service struct {
	users    accounts.Repository
	otps     *otp.Manager
	rules    *validation.Engine
	hasher   password.Hasher
	notifier notification.Notifier
	clock    clock.Clock
	logger   *slog.Logger
	locks    *userLocks
}

func NewService(
	users accounts.Repository,
	otps *otp.Manager,
	rules *validation.Engine,
	hasher password.Hasher,
	notifier notification.Notifier,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{
		users:    users,
		otps:     otps,
		rules:    rules,
		hasher:   hasher,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
		locks:    newUserLocks(),
	}
}

// StartReset issues a password reset code for the account matching
// identifier (username or email).
func (s *Service) StartReset(ctx context.Context, identifier string) (otp.Ticket, error) {
	s.sweep(ctx)

	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return otp.Ticket{}, validation.Reject("username", "Username is required.")
	}
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return otp.Ticket{}, err
	}
	return s.issue(ctx, user, otp.PurposePasswordReset)
}

// ResetStatus reports the live password reset challenge for username.
func (s *Service) ResetStatus(ctx context.Context, username string) (otp.Ticket, error) {
	s.sweep(ctx)
	return s.peek(ctx, strings.TrimSpace(username), otp.PurposePasswordReset)
}

// CompleteReset replaces the password once the code checks out. The new
// password is stored before the challenge is deleted, so a failed write
// leaves the code usable.
func (s *Service) CompleteReset(ctx context.Context, form ResetForm) error {
	username := strings.TrimSpace(form.Username)
	if username == "" {
		return otp.ErrNotFound
	}
	unlock := s.locks.lock(username)
	defer unlock()

	if _, err := s.peek(ctx, username, otp.PurposePasswordReset); err != nil {
		return err
	}

	code := strings.TrimSpace(form.Code)
	for _, f := range [][2]string{{"otp", code}, {"new_password", form.NewPassword}, {"confirm", form.Confirm}} {
		if f[1] == "" {
			return validation.Reject(f[0], "All fields are required.")
		}
	}

	if _, err := s.otps.Verify(ctx, username, code); err != nil {
		s.logger.InfoContext(ctx, "password reset rejected", "username", username, "outcome", outcome(err))
		return err
	}
	if form.NewPassword != form.Confirm {
		return validation.Reject("confirm", "Passwords do not match.")
	}
	if err := s.rules.ResetPassword(form.NewPassword); err != nil {
		return err
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(form.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.FailedAttempts = 0
	user.LockoutUntil = 0
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("save password: %w", err)
	}

	s.revoke(ctx, username)
	s.logger.InfoContext(ctx, "password reset", "username", username, "purpose", otp.PurposePasswordReset)
	return nil
}

// StartPasswordChange issues a password reset code for the signed-in user.
func (s *Service) StartPasswordChange(ctx context.Context, carrier websession.Carrier) (otp.Ticket, error) {
	username, err := websession.RequireUsername(carrier)
	if err != nil {
		return otp.Ticket{}, err
	}
	s.sweep(ctx)
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return otp.Ticket{}, err
	}
	return s.issue(ctx, user, otp.PurposePasswordReset)
}

// CompletePasswordChange is CompleteReset bound to the signed-in user.
func (s *Service) CompletePasswordChange(ctx context.Context, carrier websession.Carrier, form ResetForm) error {
	username, err := websession.RequireUsername(carrier)
	if err != nil {
		return err
	}
	form.Username = username
	return s.CompleteReset(ctx, form)
}

// SubmitProfile validates an edit, parks it in the carrier and issues a
// profile_update code. The stored record is untouched until confirmation.
func (s *Service) SubmitProfile(ctx context.Context, carrier websession.Carrier, form validation.Profile) (otp.Ticket, error) {
	username, err := websession.RequireUsername(carrier)
	if err != nil {
		return otp.Ticket{}, err
	}
	s.sweep(ctx)

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return otp.Ticket{}, err
	}

	form = form.Normalized()
	derived, err := s.rules.CheckProfile(form, s.clock.Now())
	if err != nil {
		return otp.Ticket{}, err
	}
	for _, f := range []struct {
		field accounts.Field
		value string
	}{
		{accounts.FieldEmail, form.Email},
		{accounts.FieldContact, derived.Contact},
	} {
		taken, err := s.users.Taken(ctx, f.field, f.value, user.Username)
		if err != nil {
			return otp.Ticket{}, fmt.Errorf("check %s: %w", f.field, err)
		}
		if taken {
			return otp.Ticket{}, validation.Reject(string(f.field), profileDuplicateReasons[f.field])
		}
	}

	if err := carrier.SetPendingEdit(accounts.NewPendingEdit(form, derived)); err != nil {
		return otp.Ticket{}, err
	}
	ticket, err := s.issue(ctx, user, otp.PurposeProfileUpdate)
	if err != nil {
		// An undelivered code must not leave a half-started edit behind.
		carrier.ClearPendingEdit()
		if _, perr := s.peek(ctx, user.Username, otp.PurposeProfileUpdate); perr == nil {
			s.revoke(ctx, user.Username)
		}
		return otp.Ticket{}, err
	}
	return ticket, nil
}

// ProfileStatus reports the live profile_update challenge. An expired or
// missing challenge discards the pending edit.
func (s *Service) ProfileStatus(ctx context.Context, carrier websession.Carrier) (otp.Ticket, error) {
	username, err := websession.RequireUsername(carrier)
	if err != nil {
		return otp.Ticket{}, err
	}
	if _, ok := carrier.PendingEdit(); !ok {
		return otp.Ticket{}, ErrNoPendingEdit
	}
	s.sweep(ctx)

	ticket, err := s.peek(ctx, username, otp.PurposeProfileUpdate)
	if errors.Is(err, otp.ErrNotFound) {
		carrier.ClearPendingEdit()
	}
	return ticket, err
}

// ConfirmProfile applies the pending edit once the code checks out.
func (s *Service) ConfirmProfile(ctx context.Context, carrier websession.Carrier, code string) (accounts.User, error) {
	username, err := websession.RequireUsername(carrier)
	if err != nil {
		return accounts.User{}, err
	}
	unlock := s.locks.lock(username)
	defer unlock()

	edit, ok := carrier.PendingEdit()
	if !ok {
		return accounts.User{}, ErrNoPendingEdit
	}
	if _, err := s.peek(ctx, username, otp.PurposeProfileUpdate); err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			carrier.ClearPendingEdit()
		}
		return accounts.User{}, err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return accounts.User{}, validation.Reject("otp", "OTP is required.")
	}
	if _, err := s.otps.Verify(ctx, username, code); err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			carrier.ClearPendingEdit()
		}
		s.logger.InfoContext(ctx, "profile update rejected", "username", username, "outcome", outcome(err))
		return accounts.User{}, err
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return accounts.User{}, err
	}
	edit.Apply(&user, s.clock.Now())
	if err := s.users.Update(ctx, user); err != nil {
		var dup *accounts.DuplicateError
		if errors.As(err, &dup) {
			return accounts.User{}, validation.Reject(string(dup.Field), profileDuplicateReasons[dup.Field])
		}
		return accounts.User{}, fmt.Errorf("save profile: %w", err)
	}

	s.revoke(ctx, username)
	carrier.ClearPendingEdit()
	carrier.SetDisplayName(user.DisplayName())
	s.logger.InfoContext(ctx, "profile updated", "username", username, "purpose", otp.PurposeProfileUpdate)
	return user, nil
}

// CancelProfile drops the pending edit and its challenge.
func (s *Service) CancelProfile(ctx context.Context, carrier websession.Carrier) error {
	username, err := websession.RequireUsername(carrier)
	if err != nil {
		return err
	}
	unlock := s.locks.lock(username)
	defer unlock()

	carrier.ClearPendingEdit()
	if _, err := s.peek(ctx, username, otp.PurposeProfileUpdate); err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.otps.Revoke(ctx, username)
}

func (s *Service) issue(ctx context.Context, user accounts.User, purpose otp.Purpose) (otp.Ticket, error) {
	ticket, err := s.otps.Issue(ctx, user.Username, purpose)
	if err != nil {
		return otp.Ticket{}, err
	}
	if err := s.notifier.Send(ctx, codeMessage(user, ticket)); err != nil {
		return otp.Ticket{}, fmt.Errorf("deliver code: %w", err)
	}
	s.logger.InfoContext(ctx, "otp issued", "username", user.Username, "purpose", purpose, "reused", ticket.Reused)
	return ticket, nil
}

// peek is Manager.Peek restricted to one purpose. A challenge for another
// purpose counts as missing.
func (s *Service) peek(ctx context.Context, username string, purpose otp.Purpose) (otp.Ticket, error) {
	if username == "" {
		return otp.Ticket{}, otp.ErrNotFound
	}
	ticket, err := s.otps.Peek(ctx, username)
	if err != nil {
		return otp.Ticket{}, err
	}
	if ticket.Purpose != purpose {
		return otp.Ticket{}, otp.ErrNotFound
	}
	return ticket, nil
}

func (s *Service) sweep(ctx context.Context) {
	if n, err := s.otps.Sweep(ctx); err != nil {
		s.logger.WarnContext(ctx, "otp sweep failed", "error", err)
	} else if n > 0 {
		s.logger.DebugContext(ctx, "otp sweep", "purged", n)
	}
}

// revoke runs after the account write succeeded. A failure here only leaves
// a challenge that expires on its own.
func (s *Service) revoke(ctx context.Context, username string) {
	if err := s.otps.Revoke(ctx, username); err != nil {
		s.logger.WarnContext(ctx, "otp revoke failed", "username", username, "error", err)
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, otp.ErrExpired):
		return "expired"
	case errors.Is(err, otp.ErrMismatch):
		return "mismatch"
	case errors.Is(err, otp.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func codeMessage(user accounts.User, ticket otp.Ticket) notification.Message {
	subject, action := "Your password reset code", "reset your password"
	kind := notification.KindPasswordReset
	if ticket.Purpose == otp.PurposeProfileUpdate {
		subject, action = "Confirm your profile update", "confirm your profile update"
		kind = notification.KindProfileUpdate
	}
	return notification.Message{
		Kind:        kind,
		Destination: user.Email,
		Subject:     subject,
		Body: fmt.Sprintf("Hi %s,\n\nUse %s to %s. The code expires in %s.\n",
			user.DisplayName(), ticket.Code, action, otp.FormatClock(ticket.Remaining)),
	}
}
