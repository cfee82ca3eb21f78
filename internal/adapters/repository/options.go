package repository

import (
	"fmt"
	"strings"

	"github.com/okian/vidtag/pkg/logger"
)

// MergeMode selects which in-memory events SaveFile appends to the file.
type MergeMode string

const (
	// MergeDiff appends every held event that the file does not contain yet.
	MergeDiff MergeMode = "diff"
	// MergeHead appends only the newest held event.
	MergeHead MergeMode = "head"
)

// ParseMergeMode maps a config value onto a MergeMode.
func ParseMergeMode(s string) (MergeMode, error) {
	switch MergeMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MergeDiff:
		return MergeDiff, nil
	case MergeHead:
		return MergeHead, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMergeMode, s)
	}
}

// Option applies a configuration option to the EventStore.
type Option func(*EventStore)

// WithMergeMode sets how SaveFile merges held events into the file.
func WithMergeMode(mode MergeMode) Option {
	return func(s *EventStore) {
		if mode == MergeDiff || mode == MergeHead {
			s.mergeMode = mode
		}
	}
}

// WithHalfColumn enables reading and writing the optional half column.
func WithHalfColumn(enabled bool) Option {
	return func(s *EventStore) {
		s.codec.halfColumn = enabled
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(l logger.Logger) Option {
	return func(s *EventStore) {
		if l != nil {
			s.log = l
		}
	}
}
