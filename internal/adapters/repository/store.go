// Package repository keeps the annotated events of one record file and
// persists them as CSV.
package repository

import (
	"context"
	"iter"

	"github.com/okian/vidtag/internal/domain/model"
)

// Store provides read/write access to the events of one open record file.
type Store interface {
	// CreateListFromCSV replaces the sequence with the rows of the file at path.
	// The previous sequence is kept when the file cannot be parsed.
	CreateListFromCSV(ctx context.Context, path string) error

	// AddEvent appends e and re-sorts the sequence newest first.
	AddEvent(ctx context.Context, e model.Event) error

	// DeleteEvent removes the event at index in display order.
	// Returns ErrIndexOutOfRange when index is not in [0, Len).
	DeleteEvent(ctx context.Context, index int) error

	// RemoveEvent drops one held event equal to e.
	// Returns ErrEventNotFound when no event matches.
	RemoveEvent(ctx context.Context, e model.Event) error

	// CreateTextList yields the display line of every event in display order.
	CreateTextList(ctx context.Context) iter.Seq[string]

	// Events returns a copy of the sequence in display order.
	Events(ctx context.Context) []model.Event

	// Len returns the number of events held.
	Len(ctx context.Context) int

	// SaveFile merges the held events into the file at path.
	SaveFile(ctx context.Context, path string, half int) error

	// WriteFile overwrites the file at path with the held events.
	WriteFile(ctx context.Context, path string) error

	// CreateRecordFile writes a header-only file when path does not exist.
	CreateRecordFile(ctx context.Context, path string) error
}

var _ Store = (*EventStore)(nil)
