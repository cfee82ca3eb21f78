// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// NoCoord marks an X or Y value that was never recorded.
const NoCoord = -1

// Sentinel errors for invalid records.
var (
	ErrInvalidEvent = errors.New("invalid event")
)

// Event is one annotated moment of a video.
// Position is the source of truth; minute, second and time strings are derived.
type Event struct {
	Frame    int64  // zero-based source frame index
	Team     string // team label
	Label    string // event (action) label
	X        int    // source-frame pixel, NoCoord when unset
	Y        int    // source-frame pixel, NoCoord when unset
	Position int64  // playback position in ms
	Half     int    // match half, 0 when unset
}

// NewEvent builds an Event from its stored attributes.
func NewEvent(frame int64, team, label string, x, y int, position int64) Event {
	return Event{
		Frame:    frame,
		Team:     team,
		Label:    label,
		X:        x,
		Y:        y,
		Position: position,
	}
}

// Validate reports whether the record respects the model invariants.
func (e Event) Validate() error {
	switch {
	case e.Position < 0:
		return fmt.Errorf("%w: negative position %d", ErrInvalidEvent, e.Position)
	case e.Frame < 0:
		return fmt.Errorf("%w: negative frame %d", ErrInvalidEvent, e.Frame)
	case e.Half < 0:
		return fmt.Errorf("%w: negative half %d", ErrInvalidEvent, e.Half)
	}
	return nil
}

// HasCoord is true when both coordinates were recorded.
func (e Event) HasCoord() bool {
	return e.X != NoCoord && e.Y != NoCoord
}

// Minute returns the zero-padded minute of Position.
func (e Event) Minute() string {
	m, _ := MsToTime(e.Position)
	return m
}

// Second returns Position's seconds within the minute as SS.mmm.
func (e Event) Second() string {
	_, s := MsToTime(e.Position)
	return s
}

// Time renders Position as MM:SS.mmm.
func (e Event) Time() string {
	m, s := MsToTime(e.Position)
	return m + ":" + s
}

// Text is the one-line summary shown in the event list.
func (e Event) Text() string {
	return strconv.FormatInt(e.Frame, 10) + " || " + e.Label + " - " + e.Team +
		" - " + strconv.Itoa(e.X) + " - " + strconv.Itoa(e.Y)
}

// Less orders events by Position only.
func (e Event) Less(other Event) bool {
	return e.Position < other.Position
}

// MsToTime splits a playback position into ("MM", "SS.mmm").
func MsToTime(position int64) (string, string) {
	if position < 0 {
		position = 0
	}
	totalSeconds := position / 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	ms := position % 1000
	return fmt.Sprintf("%02d", minutes), fmt.Sprintf("%02d.%03d", seconds, ms)
}

// FrameAt converts a playback position to a frame index at fps.
func FrameAt(position int64, fps float64) int64 {
	if position <= 0 || fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return 0
	}
	return int64(math.Floor(float64(position) * fps / 1000))
}
