package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/notesafe/notesafe/internal/store"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrDuplicate    = errors.New("user already exists")
)

// DuplicateError names the field that collided.
type DuplicateError struct {
	Field Field
}

func (e *DuplicateError) Error() string { return fmt.Sprintf("%s already registered", e.Field) }

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// Repository persists users. Username and email lookups ignore case.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByUsername(ctx context.Context, username string) (User, error)
	// FindByIdentifier matches either the username or the email.
	FindByIdentifier(ctx context.Context, identifier string) (User, error)
	// Update replaces the record with the same username.
	Update(ctx context.Context, user User) error
	// Taken reports whether another active user already holds value.
	Taken(ctx context.Context, field Field, value, exceptUsername string) (bool, error)
}

// FileRepository keeps users in a record collection, normally users.json.
type FileRepository struct {
	records store.Records[User]
}

func NewFileRepository(records store.Records[User]) *FileRepository {
	return &FileRepository{records: records}
}

// NewMemoryRepository builds an in-memory user store for testing.
func NewMemoryRepository() *FileRepository {
	return NewFileRepository(store.NewMemory[User]())
}

func (r *FileRepository) Create(_ context.Context, user User) error {
	return r.records.Update(func(all []User) ([]User, error) {
		if f, ok := conflict(all, user, false); ok {
			return nil, &DuplicateError{Field: f}
		}
		return append(all, user), nil
	})
}

func (r *FileRepository) FindByUsername(_ context.Context, username string) (User, error) {
	all, err := r.records.Load()
	if err != nil {
		return User{}, err
	}
	for _, u := range all {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *FileRepository) FindByIdentifier(_ context.Context, identifier string) (User, error) {
	all, err := r.records.Load()
	if err != nil {
		return User{}, err
	}
	for _, u := range all {
		if strings.EqualFold(u.Username, identifier) || strings.EqualFold(u.Email, identifier) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *FileRepository) Update(_ context.Context, user User) error {
	return r.records.Update(func(all []User) ([]User, error) {
		idx := -1
		for i, u := range all {
			if strings.EqualFold(u.Username, user.Username) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, ErrUserNotFound
		}
		if f, ok := conflict(all, user, true); ok {
			return nil, &DuplicateError{Field: f}
		}
		all[idx] = user
		return all, nil
	})
}

func (r *FileRepository) Taken(_ context.Context, field Field, value, exceptUsername string) (bool, error) {
	all, err := r.records.Load()
	if err != nil {
		return false, err
	}
	for _, u := range all {
		if !u.IsActive || (exceptUsername != "" && strings.EqualFold(u.Username, exceptUsername)) {
			continue
		}
		if matches(u, field, value) {
			return true, nil
		}
	}
	return false, nil
}

// conflict finds a unique field of user already held by another record.
// Inactive records only keep their username. With skipSelf the record
// sharing user's username is ignored.
func conflict(all []User, user User, skipSelf bool) (Field, bool) {
	for _, f := range []Field{FieldUsername, FieldEmail, FieldContact} {
		value := fieldValue(user, f)
		if value == "" {
			continue
		}
		for _, u := range all {
			if skipSelf && strings.EqualFold(u.Username, user.Username) {
				continue
			}
			if !u.IsActive && f != FieldUsername {
				continue
			}
			if matches(u, f, value) {
				return f, true
			}
		}
	}
	return "", false
}

func fieldValue(u User, f Field) string {
	switch f {
	case FieldUsername:
		return u.Username
	case FieldEmail:
		return u.Email
	case FieldContact:
		return u.Contact
	}
	return ""
}

// matches compares usernames and emails case-insensitively and contacts exactly.
func matches(u User, f Field, value string) bool {
	if f == FieldContact {
		return u.Contact == value
	}
	return strings.EqualFold(fieldValue(u, f), value)
}
