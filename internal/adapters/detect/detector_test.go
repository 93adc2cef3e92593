package detect_test

import (
	"testing"

	"github.com/pulseworks/rppg/internal/adapters/detect"
	"github.com/pulseworks/rppg/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFuncAdapter(t *testing.T) {
	Convey("Given a scripted detector function", t, func() {
		face := model.Rect{X: 100, Y: 80, W: 120, H: 120}
		var seen model.Rect
		det := detect.Func(func(frame *model.Frame, region model.Rect) []model.Rect {
			seen = region
			return []model.Rect{face}
		})

		Convey("When invoked through the Detector interface", func() {
			frame := &model.Frame{Width: 640, Height: 480}
			region := model.Rect{X: 0, Y: 0, W: 640, H: 480}
			got := det.Detect(frame, region)

			Convey("Then it forwards the search region and candidates", func() {
				So(seen, ShouldResemble, region)
				So(got, ShouldResemble, []model.Rect{face})
			})
		})

		Convey("Then Close is a no-op", func() {
			So(det.Close(), ShouldBeNil)
		})
	})
}

func TestCascadeMissingResource(t *testing.T) {
	Convey("Given a path to a nonexistent classifier", t, func() {
		_, err := detect.NewCascade("/nonexistent/cascade.xml")

		Convey("Then construction fails with the sentinel error", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "classifier load failed")
		})
	})
}
