package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notesafe/notesafe/internal/accounts"
	"github.com/notesafe/notesafe/internal/clock"
	"github.com/notesafe/notesafe/internal/logging"
	"github.com/notesafe/notesafe/internal/password"
	"github.com/notesafe/notesafe/internal/store"
	"github.com/notesafe/notesafe/internal/validation"
	"github.com/notesafe/notesafe/internal/websession"
)

var now = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, records store.Records[accounts.User]) (*Service, *accounts.FileRepository) {
	t.Helper()
	repo := accounts.NewFileRepository(records)
	svc := NewService(repo, validation.New(validation.DefaultRules()), password.NewBcrypt(4), clock.NewFake(now), logging.Discard())
	return svc, repo
}

func aliceForm() validation.Registration {
	return validation.Registration{
		FirstName: "Alice",
		LastName:  "Santos",
		DOB:       "1999-01-10",
		Contact:   "0917-555-1234",
		Province:  "Metro Manila",
		City:      "Quezon City",
		Barangay:  "Bagong Pag-asa",
		Username:  "alice2024",
		Email:     "alice2024@gmail.com",
		Password:  "Passw0rd!",
		Confirm:   "Passw0rd!",
	}
}

func requireReason(t *testing.T, err error, reason string) {
	t.Helper()
	var rej *validation.Rejection
	require.True(t, errors.As(err, &rej), "expected rejection, got %v", err)
	assert.Equal(t, reason, rej.Reason)
}

func TestRegisterStoresHashedAccount(t *testing.T) {
	svc, repo := newTestService(t, store.NewMemory[accounts.User]())
	ctx := context.Background()

	user, err := svc.Register(ctx, aliceForm())
	require.NoError(t, err)

	stored, err := repo.FindByUsername(ctx, "alice2024")
	require.NoError(t, err)
	assert.Equal(t, user, stored)
	assert.Equal(t, 25, stored.Age)
	assert.Equal(t, "09175551234", stored.Contact)
	assert.True(t, stored.IsActive)
	assert.Zero(t, stored.LoginAttempts)
	assert.Nil(t, stored.LastLogin)
	assert.Equal(t, now, stored.CreatedAt)
	assert.NotEqual(t, "Passw0rd!", stored.PasswordHash)

	hasher := password.NewBcrypt(4)
	assert.True(t, hasher.Verify(stored.PasswordHash, "Passw0rd!"))
	assert.False(t, hasher.Verify(stored.PasswordHash, "passw0rd!"))
}

func TestRegisterUniquenessIgnoresCase(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory[accounts.User]())
	ctx := context.Background()
	_, err := svc.Register(ctx, aliceForm())
	require.NoError(t, err)

	form := aliceForm()
	form.Username = "Alice2024"
	form.Email = "other2024@gmail.com"
	form.Contact = "09175550000"
	_, err = svc.Register(ctx, form)
	requireReason(t, err, "Username already exists.")

	form = aliceForm()
	form.Username = "bobby_r"
	form.Email = "ALICE2024@gmail.com"
	form.Contact = "09175550000"
	_, err = svc.Register(ctx, form)
	requireReason(t, err, "Email already registered.")

	form = aliceForm()
	form.Username = "bobby_r"
	form.Email = "bobby_r@gmail.com"
	_, err = svc.Register(ctx, form)
	requireReason(t, err, "Contact number already registered.")
}

func TestRegisterRejectionWritesNothing(t *testing.T) {
	mem := store.NewMemory[accounts.User]()
	svc, _ := newTestService(t, mem)

	form := aliceForm()
	form.Confirm = "Passw0rd?"
	_, err := svc.Register(context.Background(), form)
	requireReason(t, err, "Passwords do not match.")

	all, _ := mem.Load()
	assert.Empty(t, all)
}

func TestRegisterPersistenceFailure(t *testing.T) {
	mem := store.NewMemory[accounts.User]()
	mem.FailSaves(errors.New("read-only file system"))
	svc, _ := newTestService(t, mem)

	_, err := svc.Register(context.Background(), aliceForm())
	require.ErrorIs(t, err, store.ErrPersistence)

	all, _ := mem.Load()
	assert.Empty(t, all)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory[accounts.User]())
	ctx := context.Background()
	_, err := svc.Register(ctx, aliceForm())
	require.NoError(t, err)

	carrier := websession.NewMemory()
	_, err = svc.Login(ctx, carrier, "  ", "Passw0rd!")
	requireReason(t, err, "Please fill in all fields.")

	_, err = svc.Login(ctx, carrier, "nobody", "Passw0rd!")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, carrier, "alice2024", "passw0rd!")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, carrier.Username())

	user, err := svc.Login(ctx, carrier, "ALICE2024@GMAIL.COM", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "alice2024", user.Username)
	assert.Equal(t, "alice2024", carrier.Username())
	assert.Equal(t, "Alice", carrier.DisplayName())

	require.NoError(t, svc.Logout(ctx, carrier))
	assert.Empty(t, carrier.Username())
	require.NoError(t, svc.Logout(ctx, carrier))
}

func TestProfileRequiresIdentity(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory[accounts.User]())
	ctx := context.Background()

	_, err := svc.Profile(ctx, websession.NewMemory())
	require.ErrorIs(t, err, websession.ErrNoIdentity)

	_, err = svc.Register(ctx, aliceForm())
	require.NoError(t, err)
	carrier := websession.NewMemory()
	_, err = svc.Login(ctx, carrier, "alice2024", "Passw0rd!")
	require.NoError(t, err)

	user, err := svc.Profile(ctx, carrier)
	require.NoError(t, err)
	assert.Equal(t, "alice2024@gmail.com", user.Email)
}
