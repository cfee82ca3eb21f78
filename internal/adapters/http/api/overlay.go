package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG frames
	"image/png"
	"io"
	"net/http"
	"strconv"

	_ "golang.org/x/image/bmp"  // register BMP frames
	_ "golang.org/x/image/webp" // register WebP frames

	"github.com/okian/vidtag/internal/domain/viewport"
)

// Default overlay limits.
const (
	defaultMaxOverlayBytes  = 32 << 20
	defaultMaxOverlayPixels = 4096 * 4096
)

// OverlayDependencies defines the interface for overlay rendering.
type OverlayDependencies interface {
	RenderOverlay(ctx context.Context, frame image.Image, marker viewport.Point, widget viewport.Size) (*image.RGBA, error)
}

// OverlayHandler handles overlay requests.
type OverlayHandler struct {
	deps      OverlayDependencies
	maxBytes  int64
	maxPixels int64
}

// NewOverlayHandler creates a new overlay handler. maxPixels caps the widget
// area and the uploaded frame area.
func NewOverlayHandler(deps OverlayDependencies, maxBytes, maxPixels int64) *OverlayHandler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxOverlayBytes
	}
	if maxPixels <= 0 {
		maxPixels = defaultMaxOverlayPixels
	}
	return &OverlayHandler{deps: deps, maxBytes: maxBytes, maxPixels: maxPixels}
}

// HandleOverlay handles POST /overlay?x=&y=&w=&h= requests. The body is an
// encoded frame; the answer is a PNG of widget size.
func (h *OverlayHandler) HandleOverlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	var vals [4]int
	for i, key := range []string{"x", "y", "w", "h"} {
		v, err := strconv.Atoi(q.Get(key))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("query %s must be an integer", key))
			return
		}
		vals[i] = v
	}
	widget := viewport.Size{W: vals[2], H: vals[3]}
	if err := h.checkArea("widget", widget.W, widget.H); err != nil {
		writeServiceError(w, err)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, ErrTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("read frame: %w", err))
		return
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("decode frame: %w", err))
		return
	}
	if err := h.checkArea("frame", cfg.Width, cfg.Height); err != nil {
		writeServiceError(w, err)
		return
	}

	frame, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("decode frame: %w", err))
		return
	}

	out, err := h.deps.RenderOverlay(r.Context(), frame, viewport.Point{X: vals[0], Y: vals[1]}, widget)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_ = png.Encode(w, out)
}

// checkArea rejects an image area above maxPixels. Non-positive sizes are
// left to the renderer.
func (h *OverlayHandler) checkArea(what string, width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if int64(width) > h.maxPixels/int64(height) {
		return fmt.Errorf("%w: %s %dx%d exceeds %d pixels", ErrTooLarge, what, width, height, h.maxPixels)
	}
	return nil
}
