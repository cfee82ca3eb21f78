package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/vidtag/internal/app"
)

// PlaybackDependencies defines the interface for the session clock.
type PlaybackDependencies interface {
	Playback(ctx context.Context) (service.PlaybackState, error)
	Seek(ctx context.Context, positionMS int64) (service.PlaybackState, error)
	Step(ctx context.Context, delta int) (service.PlaybackState, error)
}

// PlaybackHandler handles playback requests.
type PlaybackHandler struct {
	deps PlaybackDependencies
}

// NewPlaybackHandler creates a new playback handler.
func NewPlaybackHandler(deps PlaybackDependencies) *PlaybackHandler {
	return &PlaybackHandler{deps: deps}
}

// playbackRequest sets the clock (position_ms) or moves it by frames (step).
type playbackRequest struct {
	PositionMS *int64 `json:"position_ms,omitempty"`
	Step       *int   `json:"step,omitempty"`
}

// HandlePlayback handles GET and POST /playback requests.
func (h *PlaybackHandler) HandlePlayback(w http.ResponseWriter, r *http.Request) {
	var (
		st  service.PlaybackState
		err error
	)
	switch r.Method {
	case http.MethodGet:
		st, err = h.deps.Playback(r.Context())
	case http.MethodPost:
		var req playbackRequest
		if err := decodeJSON(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}
		switch {
		case (req.PositionMS == nil) == (req.Step == nil):
			writeError(w, http.StatusBadRequest, "bad_request", errors.New("exactly one of position_ms and step is required"))
			return
		case req.PositionMS != nil:
			st, err = h.deps.Seek(r.Context(), *req.PositionMS)
		default:
			st, err = h.deps.Step(r.Context(), *req.Step)
		}
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
