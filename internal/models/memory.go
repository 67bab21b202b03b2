// Package models defines the domain types for the memoria journal client.
package models

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/leaflora/memoria/internal/apperr"
)

// MediaKind classifies a memory and its attached media.
type MediaKind string

// Media kinds.
const (
	KindText  MediaKind = "text"
	KindPhoto MediaKind = "photo"
	KindVideo MediaKind = "video"
)

// Valid reports whether k is one of the known kinds.
func (k MediaKind) Valid() bool {
	return k == KindText || k == KindPhoto || k == KindVideo
}

// Timestamp wraps time.Time with tolerant JSON decoding. The backend emits
// RFC 3339, but event dates originate from a datetime-local form field and
// may arrive without seconds or zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// UnmarshalJSON decodes a timestamp string trying each known layout.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("models: unrecognized timestamp %q", s)
}

// MarshalJSON encodes the timestamp as RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// MemoryRecord is a single dated journal entry with optional title, text,
// and an ordered media sequence. Records are only ever replaced wholesale:
// created via save, refetched via list load, mutated via full update,
// destroyed via delete.
type MemoryRecord struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	EventDate Timestamp `json:"event_date"`
	CreatedAt Timestamp `json:"created_at"`
	Type      MediaKind `json:"type"`
	MediaURLs []string  `json:"media_urls,omitempty"`
}

// HasMedia reports whether the record carries a non-empty media sequence.
func (m *MemoryRecord) HasMedia() bool {
	return (m.Type == KindPhoto || m.Type == KindVideo) && len(m.MediaURLs) > 0
}

// Draft holds the editable fields of a memory before it is saved.
type Draft struct {
	Title     string
	Content   string
	EventDate time.Time
	Kind      MediaKind
	MediaURLs []string
}

// Validate checks the locally required fields. It runs before any network
// call so an incomplete form never reaches the backend.
func (d Draft) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Content, validation.Required.Error("content is required")),
		validation.Field(&d.EventDate, validation.Required.Error("event date is required")),
		validation.Field(&d.Kind, validation.Required, validation.In(KindText, KindPhoto, KindVideo)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}
