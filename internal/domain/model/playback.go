package model

import "math"

// FrameDuration is the length of one frame in ms, 0 for unusable rates.
func FrameDuration(fps float64) float64 {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return 0
	}
	return 1000 / fps
}

// StepPosition moves position by delta frames, clamped to [0, duration].
// A duration <= 0 means the upper bound is unknown.
func StepPosition(position int64, fps float64, delta int, duration int64) int64 {
	next := float64(position) + float64(delta)*FrameDuration(fps)
	if next < 0 {
		next = 0
	}
	out := int64(next)
	if duration > 0 && out > duration {
		out = duration
	}
	return out
}
