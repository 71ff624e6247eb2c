package notes

import (
	"context"
	"errors"

	"github.com/notesafe/notesafe/internal/store"
)

var ErrNotFound = errors.New("note not found")

// Repository persists notes. Every lookup is scoped to the owner, so a note
// belonging to someone else is reported as ErrNotFound.
type Repository interface {
	ListByOwner(ctx context.Context, username string) ([]Note, error)
	Create(ctx context.Context, note Note) (Note, error)
	Modify(ctx context.Context, username string, id int, fn func(*Note)) (Note, error)
	Delete(ctx context.Context, username string, id int) error
}

// FileRepository keeps notes in a record collection.
type FileRepository struct {
	records store.Records[Note]
}

func NewFileRepository(records store.Records[Note]) *FileRepository {
	return &FileRepository{records: records}
}

func NewMemoryRepository() *FileRepository {
	return NewFileRepository(store.NewMemory[Note]())
}

func (r *FileRepository) ListByOwner(_ context.Context, username string) ([]Note, error) {
	all, err := r.records.Load()
	if err != nil {
		return nil, err
	}
	owned := make([]Note, 0, len(all))
	for _, n := range all {
		if n.Username == username {
			owned = append(owned, n)
		}
	}
	return owned, nil
}

// Create assigns the next id (highest existing id plus one) and appends.
func (r *FileRepository) Create(_ context.Context, note Note) (Note, error) {
	err := r.records.Update(func(all []Note) ([]Note, error) {
		next := 0
		for _, n := range all {
			next = max(next, n.ID)
		}
		note.ID = next + 1
		return append(all, note), nil
	})
	if err != nil {
		return Note{}, err
	}
	return note, nil
}

func (r *FileRepository) Modify(_ context.Context, username string, id int, fn func(*Note)) (Note, error) {
	var out Note
	err := r.records.Update(func(all []Note) ([]Note, error) {
		for i := range all {
			if all[i].ID == id && all[i].Username == username {
				fn(&all[i])
				out = all[i]
				return all, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return Note{}, err
	}
	return out, nil
}

func (r *FileRepository) Delete(_ context.Context, username string, id int) error {
	return r.records.Update(func(all []Note) ([]Note, error) {
		kept := all[:0]
		for _, n := range all {
			if n.ID == id && n.Username == username {
				continue
			}
			kept = append(kept, n)
		}
		if len(kept) == len(all) {
			return nil, ErrNotFound
		}
		return kept, nil
	})
}
