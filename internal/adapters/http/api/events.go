package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/vidtag/internal/app"
	"github.com/okian/vidtag/internal/domain/model"
	"github.com/okian/vidtag/internal/domain/viewport"
)

// EventDependencies defines the interface for event list operations.
type EventDependencies interface {
	Events(ctx context.Context) ([]model.Event, error)
	Add(ctx context.Context, pair service.LabelPair, positionMS int64, coord *viewport.Point) ([]string, error)
	AddCurrent(ctx context.Context, pair service.LabelPair, coord *viewport.Point) ([]string, error)
	Delete(ctx context.Context, index int) ([]string, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// addEventRequest mirrors the OpenAPI schema for POST /events.
type addEventRequest struct {
	Event   string `json:"event"`
	Team    string `json:"team"`
	VideoMS *int64 `json:"video_ms"`
	X       *int   `json:"x,omitempty"`
	Y       *int   `json:"y,omitempty"`
}

func (e addEventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.Event) == "":
		return errors.New("missing event")
	case strings.TrimSpace(e.Team) == "":
		return errors.New("missing team")
	case e.VideoMS != nil && *e.VideoMS < 0:
		return errors.New("video_ms must not be negative")
	case (e.X == nil) != (e.Y == nil):
		return errors.New("x and y must be given together")
	}
	return nil
}

func (e addEventRequest) coord() *viewport.Point {
	if e.X == nil || e.Y == nil {
		return nil
	}
	return &viewport.Point{X: *e.X, Y: *e.Y}
}

// eventView is one row of GET /events.
type eventView struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Frame    int64  `json:"frame"`
	Team     string `json:"team"`
	Event    string `json:"event"`
	Time     string `json:"time"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	VideoMS  int64  `json:"video_ms"`
	Half     int    `json:"half,omitempty"`
	HasCoord bool   `json:"has_coord"`
}

type eventsResponse struct {
	Events []eventView `json:"events"`
	Count  int         `json:"count"`
}

// HandleEvents handles GET and POST /events requests.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.add(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *EventsHandler) list(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.Events(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	views := make([]eventView, len(events))
	for i, e := range events {
		views[i] = eventView{
			Index:    i,
			Text:     e.Text(),
			Frame:    e.Frame,
			Team:     e.Team,
			Event:    e.Label,
			Time:     e.Time(),
			X:        e.X,
			Y:        e.Y,
			VideoMS:  e.Position,
			Half:     e.Half,
			HasCoord: e.HasCoord(),
		}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: views, Count: len(views)})
}

func (h *EventsHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	pair := service.LabelPair{Event: req.Event, Team: req.Team}
	var (
		list []string
		err  error
	)
	if req.VideoMS != nil {
		list, err = h.deps.Add(r.Context(), pair, *req.VideoMS, req.coord())
	} else {
		list, err = h.deps.AddCurrent(r.Context(), pair, req.coord())
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newListResponse(list))
}

// HandleDeleteEvent handles DELETE /events/{index} requests.
func (h *EventsHandler) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/events/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	index, err := strconv.Atoi(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("index must be an integer"))
		return
	}

	list, err := h.deps.Delete(r.Context(), index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(list))
}
