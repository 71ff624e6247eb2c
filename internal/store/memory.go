package store

import (
	"errors"
	"fmt"
	"sync"
)

// Memory keeps records in process. Useful for tests and ephemeral runs.
type Memory[T any] struct {
	mu      sync.Mutex
	records []T
	saveErr error
}

func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{records: []T{}}
}

// FailSaves makes every following write return err wrapped in ErrPersistence.
// Passing nil restores normal behaviour.
func (m *Memory[T]) FailSaves(err error) {
	m.mu.Lock()
	m.saveErr = err
	m.mu.Unlock()
}

func (m *Memory[T]) Load() ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.records), nil
}

func (m *Memory[T]) Save(records []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(records)
}

func (m *Memory[T]) Update(fn func([]T) ([]T, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := fn(clone(m.records))
	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	return m.save(next)
}

func (m *Memory[T]) save(records []T) error {
	if m.saveErr != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, m.saveErr)
	}
	m.records = clone(records)
	return nil
}

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
