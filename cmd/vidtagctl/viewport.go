package main

import (
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"os"

	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/okian/vidtag/internal/domain/viewport"
)

// widgetFlags are the widget dimensions shared by map and overlay.
type widgetFlags struct {
	width, height int
}

func (w *widgetFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&w.width, "widget-width", 0, "Widget width in pixels")
	cmd.Flags().IntVar(&w.height, "widget-height", 0, "Widget height in pixels")
	_ = cmd.MarkFlagRequired("widget-width")
	_ = cmd.MarkFlagRequired("widget-height")
}

func (w *widgetFlags) size() viewport.Size {
	return viewport.Size{W: w.width, H: w.height}
}

func mapCommand(cc *cliContext) *cobra.Command {
	var (
		widget         widgetFlags
		click          viewport.Point
		frameW, frameH int
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map a widget click to a frame coordinate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := openVideo(cc, cmd, viewport.Size{W: frameW, H: frameH}); err != nil {
				return err
			}
			p, ok, err := cc.svc.MapClick(cmd.Context(), click, widget.size())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "unmapped")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d %d\n", p.X, p.Y)
			return nil
		},
	}

	widget.bind(cmd)
	cmd.Flags().IntVar(&click.X, "x", 0, "Click x in widget pixels")
	cmd.Flags().IntVar(&click.Y, "y", 0, "Click y in widget pixels")
	cmd.Flags().IntVar(&frameW, "frame-width", 0, "Video frame width")
	cmd.Flags().IntVar(&frameH, "frame-height", 0, "Video frame height")
	_ = cmd.MarkFlagRequired("frame-width")
	_ = cmd.MarkFlagRequired("frame-height")

	return cmd
}

func overlayCommand(cc *cliContext) *cobra.Command {
	var (
		widget  widgetFlags
		marker  viewport.Point
		in, out string
	)

	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Draw a marker onto a frame image and letterbox it into a widget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			frame, err := readImage(in)
			if err != nil {
				return err
			}
			img, err := cc.svc.RenderOverlay(cmd.Context(), frame, marker, widget.size())
			if err != nil {
				return err
			}
			return writePNG(out, img)
		},
	}

	widget.bind(cmd)
	cmd.Flags().IntVar(&marker.X, "x", -1, "Marker x in frame pixels")
	cmd.Flags().IntVar(&marker.Y, "y", -1, "Marker y in frame pixels")
	cmd.Flags().StringVar(&in, "in", "", "Frame image (PNG, JPEG, BMP or WebP)")
	cmd.Flags().StringVar(&out, "out", "", "Output PNG")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
