package service

import (
	"context"

	"github.com/okian/vidtag/internal/domain/model"
	"github.com/okian/vidtag/pkg/logger"
)

// Playback is the media player the session reads its clock from.
type Playback interface {
	PositionMS() int64
	FrameRate() float64
}

// StaticPlayback is a Playback frozen at one position, used by adapters that
// receive the position with each request.
type StaticPlayback struct {
	Position int64
	FPS      float64
}

func (p StaticPlayback) PositionMS() int64  { return p.Position }
func (p StaticPlayback) FrameRate() float64 { return p.FPS }

// PlaybackState is the session clock as reported to adapters.
type PlaybackState struct {
	PositionMS int64   `json:"position_ms"`
	Frame      int64   `json:"frame"`
	FrameRate  float64 `json:"frame_rate"`
	Time       string  `json:"time"`
}

// frameAt converts a position using pb's frame rate, falling back to fallback.
func frameAt(pb Playback, position int64, fallback float64) int64 {
	return model.FrameAt(position, rateOf(pb, fallback))
}

func rateOf(pb Playback, fallback float64) float64 {
	if pb != nil && pb.FrameRate() > 0 {
		return pb.FrameRate()
	}
	return fallback
}

// Playback reports the current position of the open session.
func (s *Service) Playback(_ context.Context) (PlaybackState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessionLocked()
	if err != nil {
		return PlaybackState{}, err
	}
	return s.stateLocked(sess), nil
}

// Seek moves the session clock to positionMS, clamped to the video duration
// when known. The session keeps its frame rate.
func (s *Service) Seek(ctx context.Context, positionMS int64) (PlaybackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked()
	if err != nil {
		return PlaybackState{}, err
	}
	return s.seekLocked(ctx, sess, positionMS), nil
}

// Step moves the session clock by delta frames.
func (s *Service) Step(ctx context.Context, delta int) (PlaybackState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessionLocked()
	if err != nil {
		return PlaybackState{}, err
	}
	fps := rateOf(sess.playback, s.defaultFrameRate)
	next := model.StepPosition(sess.playback.PositionMS(), fps, delta, sess.durationMS)
	return s.seekLocked(ctx, sess, next), nil
}

// seekLocked clamps positionMS to the session and moves its clock there;
// caller must hold the write lock.
func (s *Service) seekLocked(ctx context.Context, sess *session, positionMS int64) PlaybackState {
	pos := max(positionMS, 0)
	if sess.durationMS > 0 {
		pos = min(pos, sess.durationMS)
	}
	sess.playback = StaticPlayback{Position: pos, FPS: rateOf(sess.playback, s.defaultFrameRate)}
	st := s.stateLocked(sess)
	s.logger.Debug(ctx, "seek", logger.String("session", sess.id), logger.Int64("position", st.PositionMS))
	return st
}

func (s *Service) stateLocked(sess *session) PlaybackState {
	pos := sess.playback.PositionMS()
	fps := rateOf(sess.playback, s.defaultFrameRate)
	minute, second := model.MsToTime(pos)
	return PlaybackState{
		PositionMS: pos,
		Frame:      model.FrameAt(pos, fps),
		FrameRate:  fps,
		Time:       minute + ":" + second,
	}
}
