// Package viewport maps pointer positions between a display widget and the
// source video frame it shows with aspect-ratio preserving letterboxing.
//
// The hit-test (WidgetToFrame) and the overlay renderer (RenderOverlay) share
// VideoRect, so a marker drawn at a frame coordinate is hit by a click on its
// displayed pixel.
package viewport

import "errors"

// Sentinel errors for rendering.
var (
	ErrUnknownFrameSize = errors.New("frame size unknown")
	ErrInvalidWidget    = errors.New("widget has no area")
)

// Size is a width/height pair in pixels.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Valid is true when both dimensions are positive.
func (s Size) Valid() bool { return s.W > 0 && s.H > 0 }

// Point is a pixel position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is an axis-aligned rectangle with origin X,Y.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Contains reports whether p lies inside r, right and bottom edges excluded.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// VideoRect returns the region of widget that shows the video.
// ok is false when the frame size is unknown.
func VideoRect(widget, frame Size) (Rect, bool) {
	if !frame.Valid() {
		return Rect{}, false
	}
	scaleW := float64(widget.W) / float64(frame.W)
	scaleH := float64(widget.H) / float64(frame.H)
	scale := min(scaleW, scaleH)
	if scale < 0 {
		scale = 0
	}

	w := int(float64(frame.W) * scale)
	h := int(float64(frame.H) * scale)
	return Rect{
		X: (widget.W - w) / 2,
		Y: (widget.H - h) / 2,
		W: w,
		H: h,
	}, true
}

// WidgetToFrame converts a click in widget space to source-frame pixels.
// ok is false when the click hit a letterbox bar or the frame size is unknown.
func WidgetToFrame(click Point, widget, frame Size) (Point, bool) {
	r, ok := VideoRect(widget, frame)
	if !ok || r.W <= 0 || r.H <= 0 || !r.Contains(click) {
		return Point{}, false
	}
	// Integer division floors for the non-negative offsets Contains guarantees.
	fx := (click.X - r.X) * frame.W / r.W
	fy := (click.Y - r.Y) * frame.H / r.H
	return Point{
		X: clamp(fx, 0, frame.W-1),
		Y: clamp(fy, 0, frame.H-1),
	}, true
}

// FrameToWidget returns the widget pixel at the center of the displayed cell
// for frame pixel p.
func FrameToWidget(p Point, widget, frame Size) (Point, bool) {
	r, ok := VideoRect(widget, frame)
	if !ok || r.W <= 0 || r.H <= 0 {
		return Point{}, false
	}
	if p.X < 0 || p.Y < 0 || p.X >= frame.W || p.Y >= frame.H {
		return Point{}, false
	}
	return Point{
		X: r.X + (2*p.X+1)*r.W/(2*frame.W),
		Y: r.Y + (2*p.Y+1)*r.H/(2*frame.H),
	}, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
