package service_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	service "github.com/okian/vidtag/internal/app"
	"github.com/okian/vidtag/internal/adapters/repository"
	"github.com/okian/vidtag/internal/config"
	"github.com/okian/vidtag/internal/domain/labels"
	"github.com/okian/vidtag/internal/domain/viewport"
	"github.com/okian/vidtag/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func startedService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When it is used before Start", func() {
			_, err := svc.Open(ctx, "match.mp4", service.OpenOptions{})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When starting and stopping", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)

			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When no video is open", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			_, err := svc.List(ctx)
			So(errors.Is(err, service.ErrNoSession), ShouldBeTrue)
			_, err = svc.Add(ctx, service.LabelPair{Event: "pass", Team: "home"}, 0, nil)
			So(errors.Is(err, service.ErrNoSession), ShouldBeTrue)
			_, err = svc.Delete(ctx, 0)
			So(errors.Is(err, service.ErrNoSession), ShouldBeTrue)
			_, ok, err := svc.MapClick(ctx, viewport.Point{X: 1, Y: 1}, viewport.Size{W: 10, H: 10})
			So(errors.Is(err, service.ErrNoSession), ShouldBeTrue)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestService_OpenAddDelete(t *testing.T) {
	Convey("Given a started service and a video without a record file", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		video := filepath.Join(dir, "final.mp4")
		svc := startedService(t)
		defer svc.Stop()

		Convey("When the video is opened", func() {
			list, err := svc.Open(ctx, video, service.OpenOptions{FrameRate: 25})

			Convey("Then the record file is created with a header and the list is empty", func() {
				So(err, ShouldBeNil)
				So(list, ShouldBeEmpty)
				data, err := os.ReadFile(filepath.Join(dir, "final.csv"))
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "frame,team,event,minute,second,x,y,video_ms\n")

				info, err := svc.Session(ctx)
				So(err, ShouldBeNil)
				So(info.ID, ShouldNotBeEmpty)
				So(info.FrameRate, ShouldEqual, 25)
			})

			Convey("Then adding events saves them and lists newest first", func() {
				_, err := svc.Add(ctx, service.LabelPair{Event: "pass", Team: "home"}, 1000, nil)
				So(err, ShouldBeNil)
				list, err := svc.Add(ctx, service.LabelPair{Event: "shot", Team: "away"}, 2000, &viewport.Point{X: 3, Y: 4})
				So(err, ShouldBeNil)
				So(list, ShouldResemble, []string{"50 || shot - away - 3 - 4", "25 || pass - home - -1 - -1"})

				reloaded := repository.NewEventStore()
				So(reloaded.CreateListFromCSV(ctx, filepath.Join(dir, "final.csv")), ShouldBeNil)
				So(reloaded.Len(ctx), ShouldEqual, 2)
			})

			Convey("Then deleting rewrites the record file", func() {
				_, err := svc.Add(ctx, service.LabelPair{Event: "pass", Team: "home"}, 1000, nil)
				So(err, ShouldBeNil)
				_, err = svc.Add(ctx, service.LabelPair{Event: "shot", Team: "away"}, 2000, nil)
				So(err, ShouldBeNil)

				list, err := svc.Delete(ctx, 0)
				So(err, ShouldBeNil)
				So(list, ShouldResemble, []string{"25 || pass - home - -1 - -1"})

				reloaded := repository.NewEventStore()
				So(reloaded.CreateListFromCSV(ctx, filepath.Join(dir, "final.csv")), ShouldBeNil)
				So(reloaded.Len(ctx), ShouldEqual, 1)

				_, err = svc.Delete(ctx, 5)
				So(errors.Is(err, repository.ErrIndexOutOfRange), ShouldBeTrue)
			})

			Convey("Then a missing label is rejected", func() {
				_, err := svc.Add(ctx, service.LabelPair{Event: "pass"}, 1000, nil)
				So(errors.Is(err, service.ErrMissingLabel), ShouldBeTrue)
			})
		})

		Convey("When the video is reopened", func() {
			_, err := svc.Open(ctx, video, service.OpenOptions{})
			So(err, ShouldBeNil)
			_, err = svc.Add(ctx, service.LabelPair{Event: "goal", Team: "home"}, 90000, nil)
			So(err, ShouldBeNil)

			list, err := svc.Open(ctx, video, service.OpenOptions{})

			Convey("Then the saved events come back", func() {
				So(err, ShouldBeNil)
				So(list, ShouldResemble, []string{"2700 || goal - home - -1 - -1"})
			})
		})
	})

	Convey("Given a record file with a malformed row", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		So(os.WriteFile(filepath.Join(dir, "bad.csv"),
			[]byte("frame,team,event,minute,second,x,y,video_ms\n1,home,pass,00,00.000,x,1,0\n"), 0o600), ShouldBeNil)
		svc := startedService(t)
		defer svc.Stop()

		Convey("Then opening fails with a data format error", func() {
			_, err := svc.Open(ctx, filepath.Join(dir, "bad.mp4"), service.OpenOptions{})
			So(errors.Is(err, repository.ErrDataFormat), ShouldBeTrue)
		})
	})
}

func TestService_SharedRecordAndHalf(t *testing.T) {
	Convey("Given a service using a shared record file with a half column", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		svc := startedService(t,
			service.WithRecordNaming(config.NamingShared),
			service.WithHalfColumn(true),
			service.WithHalf(1),
		)
		defer svc.Stop()

		_, err := svc.Open(ctx, filepath.Join(dir, "a.mp4"), service.OpenOptions{Half: 2})
		So(err, ShouldBeNil)
		_, err = svc.Add(ctx, service.LabelPair{Event: "pass", Team: "home"}, 100, nil)
		So(err, ShouldBeNil)

		Convey("Then events land in Labels.csv stamped with the session half", func() {
			data, err := os.ReadFile(filepath.Join(dir, "Labels.csv"))
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "frame,team,event,minute,second,x,y,video_ms,half\n3,home,pass,00,00.100,-1,-1,100,2\n")
		})
	})
}

func TestService_Clicks(t *testing.T) {
	Convey("Given an open session with a known frame size", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		svc := startedService(t)
		defer svc.Stop()
		_, err := svc.Open(ctx, filepath.Join(dir, "clip.mp4"), service.OpenOptions{FrameSize: viewport.Size{W: 100, H: 100}})
		So(err, ShouldBeNil)
		widget := viewport.Size{W: 200, H: 100}

		Convey("When clicking on the video", func() {
			p, ok, err := svc.MapClick(ctx, viewport.Point{X: 60, Y: 10}, widget)
			So(err, ShouldBeNil)

			Convey("Then the frame coordinate is used by the next add only", func() {
				So(ok, ShouldBeTrue)
				So(p, ShouldResemble, viewport.Point{X: 10, Y: 10})

				list, err := svc.Add(ctx, service.LabelPair{Event: "pass", Team: "home"}, 2000, nil)
				So(err, ShouldBeNil)
				So(list[0], ShouldEqual, "60 || pass - home - 10 - 10")

				list, err = svc.Add(ctx, service.LabelPair{Event: "shot", Team: "home"}, 3000, nil)
				So(err, ShouldBeNil)
				So(list[0], ShouldEqual, "90 || shot - home - -1 - -1")
			})
		})

		Convey("When clicking on the letterbox bar", func() {
			_, ok, err := svc.MapClick(ctx, viewport.Point{X: 10, Y: 10}, widget)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("When the frame size is unknown", func() {
			So(svc.SetFrameSize(ctx, viewport.Size{}), ShouldBeNil)
			_, ok, err := svc.MapClick(ctx, viewport.Point{X: 60, Y: 10}, widget)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("When a mapped click is cleared", func() {
			_, ok, err := svc.MapClick(ctx, viewport.Point{X: 60, Y: 10}, widget)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			svc.ClearPending(ctx)
			list, err := svc.Add(ctx, service.LabelPair{Event: "pass", Team: "home"}, 2000, nil)
			So(err, ShouldBeNil)
			So(list[0], ShouldEqual, "60 || pass - home - -1 - -1")
		})
	})
}

func TestService_PlaybackAndOverlay(t *testing.T) {
	Convey("Given an open session with an attached playback", t, func() {
		ctx := context.Background()
		svc := startedService(t, service.WithMarkerArm(2))
		defer svc.Stop()
		_, err := svc.Open(ctx, filepath.Join(t.TempDir(), "clip.mp4"), service.OpenOptions{})
		So(err, ShouldBeNil)
		So(svc.SetPlayback(ctx, service.StaticPlayback{Position: 1500, FPS: 50}), ShouldBeNil)

		Convey("When adding at the current position", func() {
			list, err := svc.AddCurrent(ctx, service.LabelPair{Event: "pass", Team: "home"}, nil)
			So(err, ShouldBeNil)
			So(list, ShouldResemble, []string{"75 || pass - home - -1 - -1"})
		})

		Convey("When rendering an overlay", func() {
			frame := image.NewRGBA(image.Rect(0, 0, 10, 10))
			out, err := svc.RenderOverlay(ctx, frame, viewport.Point{X: 5, Y: 5}, viewport.Size{W: 10, H: 10})
			So(err, ShouldBeNil)
			r, g, b, _ := out.At(7, 5).RGBA()
			So([]uint32{r >> 8, g >> 8, b >> 8}, ShouldResemble, []uint32{255, 0, 0})
			So(out.At(8, 5), ShouldNotResemble, color.RGBA{R: 255, A: 255})
		})
	})
}

func TestService_Seek(t *testing.T) {
	Convey("Given a 25 fps session of two seconds", t, func() {
		ctx := context.Background()
		svc := startedService(t)
		defer svc.Stop()

		Convey("When no video is open", func() {
			_, err := svc.Playback(ctx)
			So(errors.Is(err, service.ErrNoSession), ShouldBeTrue)
			_, err = svc.Step(ctx, 1)
			So(errors.Is(err, service.ErrNoSession), ShouldBeTrue)
		})

		_, err := svc.Open(ctx, filepath.Join(t.TempDir(), "clip.mp4"), service.OpenOptions{FrameRate: 25, DurationMS: 2000})
		So(err, ShouldBeNil)

		Convey("When seeking", func() {
			st, err := svc.Seek(ctx, 1000)
			So(err, ShouldBeNil)
			So(st, ShouldResemble, service.PlaybackState{PositionMS: 1000, Frame: 25, FrameRate: 25, Time: "00:01.000"})

			Convey("Then stepping moves by whole frames", func() {
				st, err := svc.Step(ctx, 2)
				So(err, ShouldBeNil)
				So(st.PositionMS, ShouldEqual, 1080)
				So(st.Frame, ShouldEqual, 27)
			})

			Convey("Then stepping back stops at zero", func() {
				st, err := svc.Step(ctx, -100)
				So(err, ShouldBeNil)
				So(st.PositionMS, ShouldEqual, 0)
			})

			Convey("Then adding uses the new position", func() {
				list, err := svc.AddCurrent(ctx, service.LabelPair{Event: "pass", Team: "home"}, &viewport.Point{X: 3, Y: 4})
				So(err, ShouldBeNil)
				So(list, ShouldResemble, []string{"25 || pass - home - 3 - 4"})
			})
		})

		Convey("When seeking past the end", func() {
			st, err := svc.Seek(ctx, 5000)
			So(err, ShouldBeNil)
			So(st.PositionMS, ShouldEqual, 2000)
			info, err := svc.Session(ctx)
			So(err, ShouldBeNil)
			So(info.DurationMS, ShouldEqual, 2000)
		})
	})
}

func TestService_SaveFailure(t *testing.T) {
	Convey("Given a head-merge session whose record path becomes unreadable", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		record := filepath.Join(dir, "clip.csv")
		svc := startedService(t, service.WithMergeMode(repository.MergeHead))
		defer svc.Stop()
		_, err := svc.Open(ctx, filepath.Join(dir, "clip.mp4"), service.OpenOptions{FrameSize: viewport.Size{W: 100, H: 100}})
		So(err, ShouldBeNil)
		_, err = svc.Add(ctx, service.LabelPair{Event: "pass", Team: "home"}, 1000, nil)
		So(err, ShouldBeNil)

		_, ok, err := svc.MapClick(ctx, viewport.Point{X: 60, Y: 10}, viewport.Size{W: 200, H: 100})
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(os.Remove(record), ShouldBeNil)
		So(os.Mkdir(record, 0o750), ShouldBeNil)

		Convey("When an add cannot be saved", func() {
			_, err := svc.Add(ctx, service.LabelPair{Event: "shot", Team: "away"}, 2000, nil)
			So(err, ShouldNotBeNil)

			Convey("Then the event is not listed", func() {
				list, err := svc.List(ctx)
				So(err, ShouldBeNil)
				So(list, ShouldResemble, []string{"30 || pass - home - -1 - -1"})
			})

			Convey("Then the mapped click is still pending once saving works again", func() {
				So(os.Remove(record), ShouldBeNil)
				list, err := svc.Add(ctx, service.LabelPair{Event: "shot", Team: "away"}, 2000, nil)
				So(err, ShouldBeNil)
				So(list[0], ShouldEqual, "60 || shot - away - 10 - 10")

				store := repository.NewEventStore()
				So(store.CreateListFromCSV(ctx, record), ShouldBeNil)
				So(store.Len(ctx), ShouldEqual, 1)
			})
		})
	})
}

func TestService_AddCurrentDuringOpen(t *testing.T) {
	Convey("Given two videos whose clocks differ", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		videoA := filepath.Join(dir, "a.mp4")
		videoB := filepath.Join(dir, "b.mp4")
		svc := startedService(t)
		defer svc.Stop()

		Convey("When adds at the current position race with opening the other video", func() {
			for range 20 {
				_, err := svc.Open(ctx, videoA, service.OpenOptions{})
				So(err, ShouldBeNil)
				_, err = svc.Seek(ctx, 5000)
				So(err, ShouldBeNil)

				var wg sync.WaitGroup
				wg.Add(2)
				go func() {
					defer wg.Done()
					_, _ = svc.Open(ctx, videoB, service.OpenOptions{})
				}()
				go func() {
					defer wg.Done()
					_, _ = svc.AddCurrent(ctx, service.LabelPair{Event: "pass", Team: "home"}, nil)
				}()
				wg.Wait()
			}

			Convey("Then every event carries the clock of the video it was saved to", func() {
				for video, want := range map[string]int64{"a.csv": 5000, "b.csv": 0} {
					store := repository.NewEventStore()
					So(store.CreateListFromCSV(ctx, filepath.Join(dir, video)), ShouldBeNil)
					for _, e := range store.Events(ctx) {
						So(e.Position, ShouldEqual, want)
					}
				}
			})
		})
	})
}

func TestService_Labels(t *testing.T) {
	Convey("Given a service with a labels directory", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		svc := startedService(t, service.WithLabelFiles(labels.NewFiles(dir, "events.txt", "teams.txt")))
		defer svc.Stop()

		Convey("When labels are saved and read", func() {
			want := labels.Vocabulary{Events: []string{"pass"}, Teams: []string{"home", "away"}}
			So(svc.SaveLabels(ctx, want), ShouldBeNil)
			got, err := svc.Labels(ctx)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, want)
		})
	})
}

func TestOptionsFromConfig(t *testing.T) {
	Convey("Given a loaded config", t, func() {
		cfg := config.New(context.Background())

		Convey("When the merge mode is valid", func() {
			cfg.MergeMode = "head"
			cfg.HalfColumn = true
			opts, err := service.OptionsFromConfig(cfg)
			So(err, ShouldBeNil)

			svc := service.New(opts...)
			stats := svc.GetStats()
			So(stats["mergeMode"], ShouldEqual, "head")
			So(stats["halfColumn"], ShouldEqual, true)
		})

		Convey("When the merge mode is unknown", func() {
			cfg.MergeMode = "append"
			_, err := service.OptionsFromConfig(cfg)
			So(errors.Is(err, repository.ErrUnknownMergeMode), ShouldBeTrue)
		})
	})
}
