// Package service provides the annotation session service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/vidtag/internal/adapters/repository"
	"github.com/okian/vidtag/internal/config"
	"github.com/okian/vidtag/internal/domain/labels"
	"github.com/okian/vidtag/internal/domain/model"
	"github.com/okian/vidtag/internal/domain/viewport"
	"github.com/okian/vidtag/pkg/logger"
	"github.com/okian/vidtag/pkg/metrics"
)

// LabelPair is the event and team label chosen for a new annotation.
type LabelPair struct {
	Event string `json:"event"`
	Team  string `json:"team"`
}

// OpenOptions describe the video being opened.
type OpenOptions struct {
	// FrameRate overrides the configured default when positive.
	FrameRate float64
	// FrameSize is the decoded frame size; zero until the decoder reports it.
	FrameSize viewport.Size
	// Half overrides the configured match half when positive.
	Half int
	// RecordPath overrides the record file derived from the video path.
	RecordPath string
	// DurationMS bounds frame stepping; zero when unknown.
	DurationMS int64
}

// SessionInfo describes the open session.
type SessionInfo struct {
	ID         string        `json:"id"`
	VideoPath  string        `json:"video_path"`
	RecordPath string        `json:"record_path"`
	FrameRate  float64       `json:"frame_rate"`
	FrameSize  viewport.Size `json:"frame_size"`
	Half       int           `json:"half"`
	Events     int           `json:"events"`
	DurationMS int64         `json:"duration_ms,omitempty"`
	OpenedAt   time.Time     `json:"opened_at"`
}

// session is the state owned by one opened video.
type session struct {
	id         string
	videoPath  string
	recordPath string
	store      repository.Store
	playback   Playback
	frameSize  viewport.Size
	half       int
	durationMS int64
	pending    *viewport.Point
	openedAt   time.Time
}

// Service implements the annotation workflow for one video at a time.
type Service struct {
	mu sync.RWMutex

	// Configuration
	recordNaming     string
	mergeMode        repository.MergeMode
	halfColumn       bool
	half             int
	defaultFrameRate float64
	markerArm        int
	labelFiles       labels.Files

	// State
	started bool
	current *session

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRecordNaming selects per_video or shared record files.
func WithRecordNaming(naming string) Option {
	return func(s *Service) {
		if naming == config.NamingPerVideo || naming == config.NamingShared {
			s.recordNaming = naming
		}
	}
}

// WithMergeMode sets how saves merge into the record file.
func WithMergeMode(mode repository.MergeMode) Option {
	return func(s *Service) {
		if mode != "" {
			s.mergeMode = mode
		}
	}
}

// WithHalfColumn persists the match half as an extra column.
func WithHalfColumn(enabled bool) Option {
	return func(s *Service) {
		s.halfColumn = enabled
	}
}

// WithHalf sets the default match half stamped on saved events.
func WithHalf(half int) Option {
	return func(s *Service) {
		if half >= 0 {
			s.half = half
		}
	}
}

// WithDefaultFrameRate sets the frame rate used when a session reports none.
func WithDefaultFrameRate(fps float64) Option {
	return func(s *Service) {
		if fps > 0 {
			s.defaultFrameRate = fps
		}
	}
}

// WithMarkerArm sets the overlay cross arm length in frame pixels.
func WithMarkerArm(arm int) Option {
	return func(s *Service) {
		if arm >= 0 {
			s.markerArm = arm
		}
	}
}

// WithLabelFiles sets where the label vocabularies are kept.
func WithLabelFiles(files labels.Files) Option {
	return func(s *Service) {
		s.labelFiles = files
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		recordNaming:     config.NamingPerVideo,
		mergeMode:        repository.MergeDiff,
		defaultFrameRate: 30,
		markerArm:        5,
		labelFiles:       labels.NewFiles("config", "event_classes.txt", "team_classes.txt"),
		logger:           nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start prepares the service for sessions.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.started = true
	s.logger.Info(ctx, "annotation service started",
		logger.String("recordNaming", s.recordNaming),
		logger.String("mergeMode", string(s.mergeMode)),
		logger.Bool("halfColumn", s.halfColumn),
	)
	return nil
}

// Stop closes the open session.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.current = nil
	s.started = false
	metrics.UpdateStoreSize(0)
	s.logger.Info(context.Background(), "annotation service stopped")
}

// Open starts a session for videoPath, creating its record file when missing,
// and returns the display list of the events already recorded.
func (s *Service) Open(ctx context.Context, videoPath string, opts OpenOptions) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	if strings.TrimSpace(videoPath) == "" {
		return nil, ErrEmptyVideo
	}

	sess := &session{
		id:         uuid.NewString(),
		videoPath:  videoPath,
		recordPath: opts.RecordPath,
		frameSize:  opts.FrameSize,
		half:       s.half,
		durationMS: max(opts.DurationMS, 0),
		openedAt:   time.Now(),
	}
	if sess.recordPath == "" {
		sess.recordPath = config.RecordPath(s.recordNaming, videoPath)
	}
	if opts.Half > 0 {
		sess.half = opts.Half
	}
	fps := s.defaultFrameRate
	if opts.FrameRate > 0 {
		fps = opts.FrameRate
	}
	sess.playback = StaticPlayback{FPS: fps}

	log := s.logger.With(logger.String("session", sess.id))
	store := repository.NewEventStore(
		repository.WithMergeMode(s.mergeMode),
		repository.WithHalfColumn(s.halfColumn),
		repository.WithLogger(log.Named("store")),
	)
	if err := store.CreateRecordFile(ctx, sess.recordPath); err != nil {
		return nil, fmt.Errorf("open %s: %w", videoPath, err)
	}
	if err := store.CreateListFromCSV(ctx, sess.recordPath); err != nil && !errors.Is(err, repository.ErrRecordFileNotFound) {
		return nil, fmt.Errorf("open %s: %w", videoPath, err)
	}
	sess.store = store
	s.current = sess

	metrics.RecordSessionOpened()
	log.Info(ctx, "video opened",
		logger.String("video", videoPath),
		logger.String("record", sess.recordPath),
		logger.Float64("fps", fps),
		logger.Int("events", store.Len(ctx)),
	)
	return slices.Collect(store.CreateTextList(ctx)), nil
}

// Add records an event at positionMS and saves it. A nil coord uses the
// coordinate of the last mapped click, which is consumed by this call.
// When the save fails the event is taken back out of the session.
func (s *Service) Add(ctx context.Context, pair LabelPair, positionMS int64, coord *viewport.Point) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked()
	if err != nil {
		return nil, err
	}
	return s.addLocked(ctx, sess, pair, positionMS, coord)
}

// AddCurrent records an event at the current position of the session playback.
func (s *Service) AddCurrent(ctx context.Context, pair LabelPair, coord *viewport.Point) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked()
	if err != nil {
		return nil, err
	}
	return s.addLocked(ctx, sess, pair, sess.playback.PositionMS(), coord)
}

// addLocked adds and saves one event; caller must hold the write lock.
func (s *Service) addLocked(ctx context.Context, sess *session, pair LabelPair, positionMS int64, coord *viewport.Point) ([]string, error) {
	pair.Event = strings.TrimSpace(pair.Event)
	pair.Team = strings.TrimSpace(pair.Team)
	if pair.Event == "" || pair.Team == "" {
		return nil, ErrMissingLabel
	}
	s.checkVocabulary(ctx, sess.id, pair)

	x, y := model.NoCoord, model.NoCoord
	if coord == nil {
		coord = sess.pending
	}
	if coord != nil {
		x, y = coord.X, coord.Y
	}

	frame := frameAt(sess.playback, positionMS, s.defaultFrameRate)
	e := model.NewEvent(frame, pair.Team, pair.Event, x, y, positionMS)
	if err := sess.store.AddEvent(ctx, e); err != nil {
		return nil, err
	}

	if err := sess.store.SaveFile(ctx, sess.recordPath, sess.half); err != nil {
		s.logger.Error(ctx, "save failed", logger.String("session", sess.id), logger.Error(err))
		if rerr := sess.store.RemoveEvent(ctx, e); rerr != nil {
			s.logger.Error(ctx, "rollback failed", logger.String("session", sess.id), logger.Error(rerr))
		}
		return nil, err
	}
	sess.pending = nil

	s.logger.Debug(ctx, "event added",
		logger.String("session", sess.id),
		logger.String("event", e.Label),
		logger.String("team", e.Team),
		logger.Int64("frame", e.Frame),
		logger.Int64("position", e.Position),
	)
	return slices.Collect(sess.store.CreateTextList(ctx)), nil
}

// Delete removes the event at index in display order and rewrites the record file.
func (s *Service) Delete(ctx context.Context, index int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked()
	if err != nil {
		return nil, err
	}
	if err := sess.store.DeleteEvent(ctx, index); err != nil {
		return nil, err
	}
	if err := sess.store.WriteFile(ctx, sess.recordPath); err != nil {
		s.logger.Error(ctx, "rewrite failed", logger.String("session", sess.id), logger.Error(err))
		return nil, err
	}

	s.logger.Debug(ctx, "event deleted", logger.String("session", sess.id), logger.Int("index", index))
	return slices.Collect(sess.store.CreateTextList(ctx)), nil
}

// List returns the display list of the open session.
func (s *Service) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessionLocked()
	if err != nil {
		return nil, err
	}
	return slices.Collect(sess.store.CreateTextList(ctx)), nil
}

// Events returns the events of the open session in display order.
func (s *Service) Events(ctx context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessionLocked()
	if err != nil {
		return nil, err
	}
	return sess.store.Events(ctx), nil
}

// Session describes the open session.
func (s *Service) Session(ctx context.Context) (SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessionLocked()
	if err != nil {
		return SessionInfo{}, err
	}
	return SessionInfo{
		ID:         sess.id,
		VideoPath:  sess.videoPath,
		RecordPath: sess.recordPath,
		FrameRate:  sess.playback.FrameRate(),
		FrameSize:  sess.frameSize,
		Half:       sess.half,
		Events:     sess.store.Len(ctx),
		DurationMS: sess.durationMS,
		OpenedAt:   sess.openedAt,
	}, nil
}

// SetPlayback attaches the player the session reads its clock from.
func (s *Service) SetPlayback(_ context.Context, pb Playback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked()
	if err != nil {
		return err
	}
	if pb != nil {
		sess.playback = pb
	}
	return nil
}

// SetFrameSize records the decoded frame size once it is known.
func (s *Service) SetFrameSize(_ context.Context, size viewport.Size) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked()
	if err != nil {
		return err
	}
	sess.frameSize = size
	return nil
}

// MapClick converts a widget click into a frame coordinate. A mapped
// coordinate becomes pending and is used by the next Add without a coord.
// A click outside the video is not an error and reports false.
func (s *Service) MapClick(ctx context.Context, click viewport.Point, widget viewport.Size) (viewport.Point, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked()
	if err != nil {
		return viewport.Point{}, false, err
	}

	p, ok := viewport.WidgetToFrame(click, widget, sess.frameSize)
	metrics.RecordClick(ok)
	if !ok {
		s.logger.Debug(ctx, "click outside video",
			logger.Int("x", click.X), logger.Int("y", click.Y),
			logger.Int("widgetW", widget.W), logger.Int("widgetH", widget.H))
		return viewport.Point{}, false, nil
	}
	sess.pending = &p
	return p, true, nil
}

// ClearPending drops the coordinate of the last mapped click.
func (s *Service) ClearPending(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.current.pending = nil
	}
}

// RenderOverlay draws marker onto frame and letterboxes it into widget.
func (s *Service) RenderOverlay(ctx context.Context, frame image.Image, marker viewport.Point, widget viewport.Size) (*image.RGBA, error) {
	s.mu.RLock()
	arm := s.markerArm
	s.mu.RUnlock()

	out, err := viewport.RenderOverlay(frame, marker, widget, viewport.WithMarkerArm(arm))
	if err != nil {
		metrics.RecordErrorByComponent("viewport", "overlay")
		return nil, err
	}
	metrics.RecordOverlayRendered()
	return out, nil
}

// Labels reads the event and team vocabularies.
func (s *Service) Labels(_ context.Context) (labels.Vocabulary, error) {
	return s.labelFiles.Load()
}

// SaveLabels replaces the event and team vocabularies.
func (s *Service) SaveLabels(ctx context.Context, v labels.Vocabulary) error {
	if err := s.labelFiles.Save(v); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info(ctx, "labels saved", logger.Int("events", len(v.Events)), logger.Int("teams", len(v.Teams)))
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"recordNaming": s.recordNaming,
		"mergeMode":    string(s.mergeMode),
		"halfColumn":   s.halfColumn,
		"sessionOpen":  s.current != nil,
	}

	if s.current != nil {
		n := s.current.store.Len(ctx)
		stats["sessionID"] = s.current.id
		stats["videoPath"] = s.current.videoPath
		stats["recordPath"] = s.current.recordPath
		stats["events"] = n
		metrics.UpdateStoreSize(n)
	}

	return stats
}

// checkVocabulary warns about labels missing from a non-empty vocabulary.
// Free-form labels are still accepted.
func (s *Service) checkVocabulary(ctx context.Context, sessionID string, pair LabelPair) {
	v, err := s.labelFiles.Load()
	if err != nil {
		s.logger.Debug(ctx, "vocabulary unavailable", logger.Error(err))
		return
	}
	if len(v.Events) > 0 && !slices.Contains(v.Events, pair.Event) {
		s.logger.Warn(ctx, "event label not in vocabulary", logger.String("session", sessionID), logger.String("event", pair.Event))
	}
	if len(v.Teams) > 0 && !slices.Contains(v.Teams, pair.Team) {
		s.logger.Warn(ctx, "team label not in vocabulary", logger.String("session", sessionID), logger.String("team", pair.Team))
	}
}

// sessionLocked returns the open session; caller must hold s.mu.
func (s *Service) sessionLocked() (*session, error) {
	if !s.started {
		return nil, ErrNotStarted
	}
	if s.current == nil {
		return nil, ErrNoSession
	}
	return s.current, nil
}
