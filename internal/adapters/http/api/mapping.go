package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/vidtag/internal/domain/viewport"
)

// MapDependencies defines the interface for click mapping.
type MapDependencies interface {
	MapClick(ctx context.Context, click viewport.Point, widget viewport.Size) (viewport.Point, bool, error)
}

// MapHandler handles click mapping requests.
type MapHandler struct {
	deps MapDependencies
}

// NewMapHandler creates a new map handler.
func NewMapHandler(deps MapDependencies) *MapHandler {
	return &MapHandler{deps: deps}
}

// mapRequest mirrors the OpenAPI schema for POST /map.
type mapRequest struct {
	X            int `json:"x"`
	Y            int `json:"y"`
	WidgetWidth  int `json:"widget_width"`
	WidgetHeight int `json:"widget_height"`
}

type mapResponse struct {
	Mapped bool `json:"mapped"`
	X      int  `json:"x"`
	Y      int  `json:"y"`
}

// HandleMap handles POST /map requests. A click that misses the video is
// not an error and answers mapped=false.
func (h *MapHandler) HandleMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req mapRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	widget := viewport.Size{W: req.WidgetWidth, H: req.WidgetHeight}
	if !widget.Valid() {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("widget size must be positive"))
		return
	}

	p, ok, err := h.deps.MapClick(r.Context(), viewport.Point{X: req.X, Y: req.Y}, widget)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, mapResponse{Mapped: false, X: -1, Y: -1})
		return
	}
	writeJSON(w, http.StatusOK, mapResponse{Mapped: true, X: p.X, Y: p.Y})
}
