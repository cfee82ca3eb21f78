// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/vidtag/internal/app"
	"github.com/okian/vidtag/internal/adapters/repository"
	"github.com/okian/vidtag/internal/domain/labels"
	"github.com/okian/vidtag/internal/domain/model"
	"github.com/okian/vidtag/internal/domain/viewport"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	EventDependencies
	MapDependencies
	OverlayDependencies
	LabelDependencies
	PlaybackDependencies
}

// Server wires HTTP routes for the annotation API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionHandler  *SessionHandler
	eventsHandler   *EventsHandler
	mapHandler      *MapHandler
	overlayHandler  *OverlayHandler
	labelsHandler   *LabelsHandler
	playbackHandler *PlaybackHandler
}

// ServerOption customises NewServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	maxOverlayPixels int64
}

// WithMaxOverlayPixels caps the widget and frame area accepted by /overlay.
func WithMaxOverlayPixels(n int64) ServerOption {
	return func(c *serverConfig) {
		c.maxOverlayPixels = n
	}
}

// NewServer creates a new API server with all handlers.
// maxOverlayBytes caps uploaded overlay frames.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxOverlayBytes int64, opts ...ServerOption) *Server {
	var cfg serverConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionHandler:  NewSessionHandler(deps),
		eventsHandler:   NewEventsHandler(deps),
		mapHandler:      NewMapHandler(deps),
		overlayHandler:  NewOverlayHandler(deps, maxOverlayBytes, cfg.maxOverlayPixels),
		labelsHandler:   NewLabelsHandler(deps),
		playbackHandler: NewPlaybackHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/session", MetricsMiddleware(s.sessionHandler.HandleSession, "session"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleEvents, "events"))
	mux.HandleFunc("/events/", MetricsMiddleware(s.eventsHandler.HandleDeleteEvent, "events"))
	mux.HandleFunc("/map", MetricsMiddleware(s.mapHandler.HandleMap, "map"))
	mux.HandleFunc("/overlay", MetricsMiddleware(s.overlayHandler.HandleOverlay, "overlay"))
	mux.HandleFunc("/labels", MetricsMiddleware(s.labelsHandler.HandleLabels, "labels"))
	mux.HandleFunc("/playback", MetricsMiddleware(s.playbackHandler.HandlePlayback, "playback"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// listResponse carries the display list shown by the shell.
type listResponse struct {
	Items []string `json:"items"`
	Count int      `json:"count"`
}

func newListResponse(items []string) listResponse {
	if items == nil {
		items = []string{}
	}
	return listResponse{Items: items, Count: len(items)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps upstream sentinel errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNoSession), errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusConflict, "no_session", err)
	case errors.Is(err, service.ErrMissingLabel),
		errors.Is(err, service.ErrEmptyVideo),
		errors.Is(err, repository.ErrIndexOutOfRange),
		errors.Is(err, model.ErrInvalidEvent),
		errors.Is(err, viewport.ErrUnknownFrameSize),
		errors.Is(err, viewport.ErrInvalidWidget),
		errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
	case errors.Is(err, repository.ErrDataFormat):
		writeError(w, http.StatusUnprocessableEntity, "data_format", err)
	case errors.Is(err, repository.ErrRecordFileNotFound), errors.Is(err, labels.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}
