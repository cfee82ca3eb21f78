package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/okian/vidtag/internal/app"
	"github.com/okian/vidtag/internal/domain/viewport"
)

// SessionDependencies defines the interface for opening videos.
type SessionDependencies interface {
	Open(ctx context.Context, videoPath string, opts service.OpenOptions) ([]string, error)
	Session(ctx context.Context) (service.SessionInfo, error)
}

// SessionHandler handles session requests.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// openRequest mirrors the OpenAPI schema for POST /session.
type openRequest struct {
	VideoPath   string  `json:"video_path"`
	RecordPath  string  `json:"record_path,omitempty"`
	FrameRate   float64 `json:"frame_rate,omitempty"`
	FrameWidth  int     `json:"frame_width,omitempty"`
	FrameHeight int     `json:"frame_height,omitempty"`
	Half        int     `json:"half,omitempty"`
	DurationMS  int64   `json:"duration_ms,omitempty"`
}

type sessionResponse struct {
	Session service.SessionInfo `json:"session"`
	List    listResponse        `json:"list"`
}

// HandleSession handles GET and POST /session requests.
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		info, err := h.deps.Session(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	case http.MethodPost:
		h.open(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SessionHandler) open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if strings.TrimSpace(req.VideoPath) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", service.ErrEmptyVideo)
		return
	}

	list, err := h.deps.Open(r.Context(), req.VideoPath, service.OpenOptions{
		FrameRate:  req.FrameRate,
		FrameSize:  viewport.Size{W: req.FrameWidth, H: req.FrameHeight},
		Half:       req.Half,
		RecordPath: req.RecordPath,
		DurationMS: req.DurationMS,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	info, err := h.deps.Session(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Session: info, List: newListResponse(list)})
}
