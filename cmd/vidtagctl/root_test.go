package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/vidtag/internal/adapters/http/api"
	app "github.com/okian/vidtag/internal/app"
	"github.com/okian/vidtag/internal/domain/labels"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/image/bmp"
)

// run executes vidtagctl with args and returns what it printed on stdout.
func run(args ...string) (string, error) {
	var out bytes.Buffer
	root := RootCommand(&cliContext{})
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestEventCommands(t *testing.T) {
	Convey("Given a video in a scratch directory", t, func() {
		dir := t.TempDir()
		t.Setenv("VIDTAG_LABELS_DIR", dir)
		video := filepath.Join(dir, "match.mp4")
		record := filepath.Join(dir, "match.csv")

		Convey("When listing a video with no record file", func() {
			out, err := run("list", "--video", video)

			Convey("Then an empty list is printed and a header-only file exists", func() {
				So(err, ShouldBeNil)
				So(out, ShouldBeEmpty)
				data, err := os.ReadFile(record)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "frame,team,event,minute,second,x,y,video_ms\n")
			})
		})

		Convey("When adding events", func() {
			_, err := run("add", "--video", video, "-e", "pass", "-t", "home", "--ms", "1000")
			So(err, ShouldBeNil)
			out, err := run("add", "--video", video, "-e", "shot", "-t", "away", "--ms", "2000", "--x", "3", "--y", "4")
			So(err, ShouldBeNil)

			Convey("Then the list is newest first", func() {
				So(out, ShouldEqual, "60 || shot - away - 3 - 4\n30 || pass - home - -1 - -1\n")
			})

			Convey("And a later list reloads both from disk", func() {
				out, err := run("list", "-v", video)
				So(err, ShouldBeNil)
				So(strings.Count(out, "\n"), ShouldEqual, 2)
			})

			Convey("And deleting index 0 drops the newest", func() {
				out, err := run("delete", "0", "--video", video)
				So(err, ShouldBeNil)
				So(out, ShouldEqual, "30 || pass - home - -1 - -1\n")
			})

			Convey("And an explicit frame rate changes the frame number", func() {
				out, err := run("add", "--video", video, "--fps", "25", "-e", "goal", "-t", "home", "--ms", "4000")
				So(err, ShouldBeNil)
				So(strings.SplitN(out, "\n", 2)[0], ShouldEqual, "100 || goal - home - -1 - -1")
			})
		})

		Convey("When arguments are wrong", func() {
			_, err := run("list")
			So(errors.Is(err, errNoVideo), ShouldBeTrue)

			_, err = run("add", "--video", video, "-e", "pass", "-t", "home", "--ms", "1", "--x", "3")
			So(err, ShouldNotBeNil)

			_, err = run("delete", "first", "--video", video)
			So(err, ShouldNotBeNil)

			_, err = run("delete", "5", "--video", video)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestViewportCommands(t *testing.T) {
	Convey("Given a scratch directory", t, func() {
		dir := t.TempDir()
		t.Setenv("VIDTAG_LABELS_DIR", dir)
		video := filepath.Join(dir, "match.mp4")

		Convey("When mapping a click inside the video", func() {
			out, err := run("map", "-v", video, "--x", "100", "--y", "50",
				"--widget-width", "200", "--widget-height", "100", "--frame-width", "100", "--frame-height", "100")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "50 50\n")
		})

		Convey("When mapping a click on the letterbox bar", func() {
			out, err := run("map", "-v", video, "--x", "10", "--y", "50",
				"--widget-width", "200", "--widget-height", "100", "--frame-width", "100", "--frame-height", "100")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "unmapped\n")
		})

		Convey("When rendering an overlay", func() {
			in := filepath.Join(dir, "frame.png")
			outPath := filepath.Join(dir, "overlay.png")
			src := image.NewRGBA(image.Rect(0, 0, 10, 10))
			for i := range src.Pix {
				src.Pix[i] = 0xff
			}
			f, err := os.Create(in)
			So(err, ShouldBeNil)
			So(png.Encode(f, src), ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			_, err = run("overlay", "--in", in, "--out", outPath, "--x", "5", "--y", "5",
				"--widget-width", "20", "--widget-height", "20")
			So(err, ShouldBeNil)

			Convey("Then the output is a widget-sized PNG", func() {
				r, err := os.Open(outPath)
				So(err, ShouldBeNil)
				defer func() { _ = r.Close() }()
				img, err := png.Decode(r)
				So(err, ShouldBeNil)
				So(img.Bounds().Dx(), ShouldEqual, 20)
				So(img.Bounds().Dy(), ShouldEqual, 20)
				So(color.RGBAModel.Convert(img.At(0, 0)), ShouldResemble, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
			})
		})

		Convey("When rendering an overlay from a BMP frame", func() {
			in := filepath.Join(dir, "frame.bmp")
			outPath := filepath.Join(dir, "overlay.png")
			f, err := os.Create(in)
			So(err, ShouldBeNil)
			So(bmp.Encode(f, image.NewRGBA(image.Rect(0, 0, 10, 10))), ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			_, err = run("overlay", "--in", in, "--out", outPath, "--widget-width", "20", "--widget-height", "10")
			So(err, ShouldBeNil)
			_, err = os.Stat(outPath)
			So(err, ShouldBeNil)
		})

		Convey("When the frame image is missing", func() {
			_, err := run("overlay", "--in", filepath.Join(dir, "nope.png"), "--out", filepath.Join(dir, "o.png"),
				"--widget-width", "20", "--widget-height", "20")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestLabelsCommand(t *testing.T) {
	Convey("Given an empty labels directory", t, func() {
		dir := t.TempDir()
		t.Setenv("VIDTAG_LABELS_DIR", dir)

		Convey("When the vocabularies are set", func() {
			_, err := run("labels", "set", "--events", "pass,shot", "--teams", "home,away")
			So(err, ShouldBeNil)

			Convey("Then labels prints them back", func() {
				out, err := run("labels")
				So(err, ShouldBeNil)
				So(out, ShouldEqual, "events: pass, shot\nteams: home, away\n")
			})
		})
	})
}

func TestSeedCommand(t *testing.T) {
	Convey("Given a running vidtag server", t, func() {
		dir := t.TempDir()
		svc := app.New(app.WithLabelFiles(labels.NewFiles(dir, "events.txt", "teams.txt")))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, 0).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When seeding a new session", func() {
			out, err := run("seed", "--url", srv.URL, "--open", filepath.Join(dir, "match.mp4"), "--events", "12", "--workers", "3")

			Convey("Then every event is accepted and listed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, "submitted 12, accepted 12, listed 12\n")
			})
		})
	})
}
