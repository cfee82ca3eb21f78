package labels_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/vidtag/internal/domain/labels"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReadWrite(t *testing.T) {
	Convey("Given a vocabulary file with messy lines", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "event_classes.txt")
		So(os.WriteFile(path, []byte("pass  \r\nshot\n\n tackle\n"), 0o600), ShouldBeNil)

		Convey("When reading it", func() {
			items, err := labels.Read(path)

			Convey("Then trailing whitespace and blank lines are dropped", func() {
				So(err, ShouldBeNil)
				So(items, ShouldResemble, []string{"pass", "shot", " tackle"})
			})
		})

		Convey("When writing a new list and reading it back", func() {
			So(labels.Write(path, []string{"goal", " ", "foul "}), ShouldBeNil)
			items, err := labels.Read(path)

			Convey("Then only non-empty trimmed labels survive", func() {
				So(err, ShouldBeNil)
				So(items, ShouldResemble, []string{"goal", "foul"})
			})
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := labels.Read(filepath.Join(t.TempDir(), "nope.txt"))
		So(errors.Is(err, labels.ErrNotFound), ShouldBeTrue)
	})
}

func TestFiles(t *testing.T) {
	Convey("Given a labels directory", t, func() {
		dir := filepath.Join(t.TempDir(), "config")
		files := labels.NewFiles(dir, "event_classes.txt", "team_classes.txt")

		Convey("When nothing exists yet", func() {
			v, err := files.Load()
			So(err, ShouldBeNil)
			So(v.Events, ShouldBeEmpty)
			So(v.Teams, ShouldBeEmpty)
		})

		Convey("When saving and loading a vocabulary", func() {
			want := labels.Vocabulary{Events: []string{"pass", "shot"}, Teams: []string{"home", "away"}}
			So(files.Save(want), ShouldBeNil)
			got, err := files.Load()

			So(err, ShouldBeNil)
			So(got, ShouldResemble, want)
			So(got.Teams, ShouldContain, "away")
			So(got.Teams, ShouldNotContain, "ref")
		})
	})
}
