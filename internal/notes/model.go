package notes

import "time"

// Status is the lifecycle state of a note.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// TimestampLayout is the format of Note.Timestamp in notes.json.
const TimestampLayout = "2006-01-02 15:04:05"

// Note is one stored note. JSON names match notes.json.
type Note struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Status    Status `json:"status"`
}

func stamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Listing splits an owner's notes by status.
type Listing struct {
	Active   []Note `json:"active"`
	Archived []Note `json:"archived"`
}
