package otp

import (
	"context"
	"time"

	"github.com/notesafe/notesafe/internal/store"
)

// Repository persists at most one challenge per username.
type Repository interface {
	Get(ctx context.Context, username string) (Challenge, bool, error)
	Put(ctx context.Context, c Challenge) error
	// Touch stores a new TimeConsumed only if a live challenge is still
	// present, and reports whether it was.
	Touch(ctx context.Context, username, consumed string, now time.Time) (bool, error)
	Delete(ctx context.Context, username string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// FileRepository keeps challenges in a record collection, normally
// otp_sessions.json.
type FileRepository struct {
	records store.Records[Challenge]
}

func NewFileRepository(records store.Records[Challenge]) *FileRepository {
	return &FileRepository{records: records}
}

func NewMemoryRepository() *FileRepository {
	return NewFileRepository(store.NewMemory[Challenge]())
}

func (r *FileRepository) Get(_ context.Context, username string) (Challenge, bool, error) {
	all, err := r.records.Load()
	if err != nil {
		return Challenge{}, false, err
	}
	for _, c := range all {
		if c.Username == username {
			return c, true, nil
		}
	}
	return Challenge{}, false, nil
}

func (r *FileRepository) Put(_ context.Context, c Challenge) error {
	return r.records.Update(func(all []Challenge) ([]Challenge, error) {
		for i := range all {
			if all[i].Username == c.Username {
				all[i] = c
				return all, nil
			}
		}
		return append(all, c), nil
	})
}

func (r *FileRepository) Touch(_ context.Context, username, consumed string, now time.Time) (bool, error) {
	found := false
	err := r.records.Update(func(all []Challenge) ([]Challenge, error) {
		for i := range all {
			if all[i].Username != username || !all[i].Live(now) {
				continue
			}
			found = true
			if all[i].TimeConsumed == consumed {
				return nil, store.ErrUnchanged
			}
			all[i].TimeConsumed = consumed
			return all, nil
		}
		return nil, store.ErrUnchanged
	})
	return found, err
}

func (r *FileRepository) Delete(_ context.Context, username string) error {
	return r.records.Update(func(all []Challenge) ([]Challenge, error) {
		kept := all[:0]
		for _, c := range all {
			if c.Username != username {
				kept = append(kept, c)
			}
		}
		if len(kept) == len(all) {
			return nil, store.ErrUnchanged
		}
		return kept, nil
	})
}

func (r *FileRepository) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	purged := 0
	err := r.records.Update(func(all []Challenge) ([]Challenge, error) {
		kept := all[:0]
		for _, c := range all {
			if c.Live(now) {
				kept = append(kept, c)
			}
		}
		purged = len(all) - len(kept)
		if purged == 0 {
			return nil, store.ErrUnchanged
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}
