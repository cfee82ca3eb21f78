// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and VIDTAG_ env vars on top of the defaults.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Record file naming modes.
const (
	// NamingPerVideo stores events next to the video as <base>.csv.
	NamingPerVideo = "per_video"
	// NamingShared stores events of every video in one directory in Labels.csv.
	NamingShared = "shared"

	sharedRecordFile = "Labels.csv"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// LabelsDir holds the event and team vocabulary files.
	LabelsDir       string `koanf:"labels_dir"`
	EventLabelsFile string `koanf:"event_labels_file"`
	TeamLabelsFile  string `koanf:"team_labels_file"`

	// RecordNaming selects where a video's record file lives: per_video or shared.
	RecordNaming string `koanf:"record_naming"`

	// MergeMode selects how saves merge into the record file: diff or head.
	MergeMode string `koanf:"merge_mode"`

	// DefaultFrameRate is used when a session does not report one.
	DefaultFrameRate float64 `koanf:"default_frame_rate"`

	// Half tags saved events with the match half; 0 leaves them untagged.
	Half int `koanf:"half"`
	// HalfColumn persists the half as an extra CSV column.
	HalfColumn bool `koanf:"half_column"`

	// MarkerArm is the half length in frame pixels of the overlay cross.
	MarkerArm int `koanf:"marker_arm"`

	// MaxOverlayBytes caps the size of an uploaded overlay frame.
	MaxOverlayBytes int64 `koanf:"max_overlay_bytes"`
	// MaxOverlayPixels caps both the overlay widget area and the uploaded frame area.
	MaxOverlayPixels int64 `koanf:"max_overlay_pixels"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		LabelsDir:        "config",
		EventLabelsFile:  "event_classes.txt",
		TeamLabelsFile:   "team_classes.txt",
		RecordNaming:     NamingPerVideo,
		MergeMode:        "diff",
		DefaultFrameRate: 30,
		Half:             0,
		HalfColumn:       false,
		MarkerArm:        5,
		MaxOverlayBytes:  32 << 20,
		MaxOverlayPixels: 4096 * 4096,
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RecordNaming != NamingPerVideo && c.RecordNaming != NamingShared:
		return fmt.Errorf("%w: record_naming %q", ErrInvalidConfig, c.RecordNaming)
	case c.DefaultFrameRate <= 0:
		return fmt.Errorf("%w: default_frame_rate must be positive", ErrInvalidConfig)
	case c.Half < 0:
		return fmt.Errorf("%w: half must not be negative", ErrInvalidConfig)
	case c.MarkerArm < 0:
		return fmt.Errorf("%w: marker_arm must not be negative", ErrInvalidConfig)
	case c.MaxOverlayBytes <= 0:
		return fmt.Errorf("%w: max_overlay_bytes must be positive", ErrInvalidConfig)
	case c.MaxOverlayPixels <= 0:
		return fmt.Errorf("%w: max_overlay_pixels must be positive", ErrInvalidConfig)
	}
	return nil
}

// RecordPath returns the record file used for videoPath under naming.
func RecordPath(naming, videoPath string) string {
	dir := filepath.Dir(videoPath)
	if naming == NamingShared {
		return filepath.Join(dir, sharedRecordFile)
	}
	base := filepath.Base(videoPath)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".csv")
}
