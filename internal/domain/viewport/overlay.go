package viewport

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Default marker appearance.
const (
	defaultMarkerArm = 5
)

// overlayConfig holds RenderOverlay settings.
type overlayConfig struct {
	arm        int
	marker     color.Color
	background color.Color
}

// OverlayOption customises RenderOverlay.
type OverlayOption func(*overlayConfig)

// WithMarkerArm sets the cross arm length in frame pixels.
func WithMarkerArm(arm int) OverlayOption {
	return func(c *overlayConfig) {
		if arm > 0 {
			c.arm = arm
		}
	}
}

// WithMarkerColor sets the cross colour.
func WithMarkerColor(col color.Color) OverlayOption {
	return func(c *overlayConfig) {
		if col != nil {
			c.marker = col
		}
	}
}

// RenderOverlay draws a cross at marker in frame pixel space, then scales
// the frame into VideoRect on a canvas of widget size.
// A marker with a negative coordinate is not drawn.
func RenderOverlay(src image.Image, marker Point, widget Size, opts ...OverlayOption) (*image.RGBA, error) {
	cfg := overlayConfig{
		arm:        defaultMarkerArm,
		marker:     color.RGBA{R: 0xff, A: 0xff},
		background: color.Black,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if src == nil || src.Bounds().Empty() {
		return nil, ErrUnknownFrameSize
	}
	if !widget.Valid() {
		return nil, ErrInvalidWidget
	}

	b := src.Bounds()
	frame := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(frame, frame.Bounds(), src, b.Min, draw.Src)
	if marker.X >= 0 && marker.Y >= 0 {
		drawCross(frame, marker, cfg.arm, cfg.marker)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, widget.W, widget.H))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(cfg.background), image.Point{}, draw.Src)

	r, _ := VideoRect(widget, Size{W: b.Dx(), H: b.Dy()})
	if r.W > 0 && r.H > 0 {
		dst := image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
		draw.NearestNeighbor.Scale(canvas, dst, frame, frame.Bounds(), draw.Src, nil)
	}
	return canvas, nil
}

// drawCross paints a 1px thick cross of the given arm length, clipped to img.
func drawCross(img *image.RGBA, at Point, arm int, col color.Color) {
	bounds := img.Bounds()
	for d := -arm; d <= arm; d++ {
		if p := image.Pt(at.X+d, at.Y); p.In(bounds) {
			img.Set(p.X, p.Y, col)
		}
		if p := image.Pt(at.X, at.Y+d); p.In(bounds) {
			img.Set(p.X, p.Y, col)
		}
	}
}
