package notes

import (
	"context"
	"log/slog"
	"strings"

	"github.com/notesafe/notesafe/internal/clock"
	"github.com/notesafe/notesafe/internal/validation"
)

// Service manages a signed-in user's notes.
type Service struct {
	repo   Repository
	clock  clock.Clock
	logger *slog.Logger
}

func NewService(repo Repository, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{repo: repo, clock: clk, logger: logger}
}

// Input is the editable part of a note.
type Input struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

func (in Input) trimmed() Input {
	return Input{Title: strings.TrimSpace(in.Title), Content: strings.TrimSpace(in.Content)}
}

// List returns the owner's notes in stored order, split by status.
func (s *Service) List(ctx context.Context, username string) (Listing, error) {
	owned, err := s.repo.ListByOwner(ctx, username)
	if err != nil {
		return Listing{}, err
	}
	out := Listing{Active: []Note{}, Archived: []Note{}}
	for _, n := range owned {
		switch n.Status {
		case StatusActive:
			out.Active = append(out.Active, n)
		case StatusArchived:
			out.Archived = append(out.Archived, n)
		}
	}
	return out, nil
}

func (s *Service) Add(ctx context.Context, username string, in Input) (Note, error) {
	in = in.trimmed()
	if in.Title == "" {
		return Note{}, validation.Reject("title", "Title is required.")
	}
	note, err := s.repo.Create(ctx, Note{
		Username:  username,
		Title:     in.Title,
		Content:   in.Content,
		Timestamp: stamp(s.clock.Now()),
		Status:    StatusActive,
	})
	if err != nil {
		return Note{}, err
	}
	s.logger.InfoContext(ctx, "note added", "username", username, "note_id", note.ID)
	return note, nil
}

// Edit replaces title and content and refreshes the timestamp. Status is kept.
func (s *Service) Edit(ctx context.Context, username string, id int, in Input) (Note, error) {
	in = in.trimmed()
	if in.Title == "" {
		return Note{}, validation.Reject("title", "Title required.")
	}
	now := stamp(s.clock.Now())
	return s.repo.Modify(ctx, username, id, func(n *Note) {
		n.Title = in.Title
		n.Content = in.Content
		n.Timestamp = now
	})
}

func (s *Service) Archive(ctx context.Context, username string, id int) (Note, error) {
	return s.setStatus(ctx, username, id, StatusArchived)
}

func (s *Service) Restore(ctx context.Context, username string, id int) (Note, error) {
	return s.setStatus(ctx, username, id, StatusActive)
}

// Delete removes the note for good.
func (s *Service) Delete(ctx context.Context, username string, id int) error {
	if err := s.repo.Delete(ctx, username, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "note deleted", "username", username, "note_id", id)
	return nil
}

func (s *Service) setStatus(ctx context.Context, username string, id int, status Status) (Note, error) {
	return s.repo.Modify(ctx, username, id, func(n *Note) { n.Status = status })
}
