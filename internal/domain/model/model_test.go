package model_test

import (
	"testing"

	"github.com/pulseworks/rppg/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRect(t *testing.T) {
	Convey("Given a rectangle", t, func() {
		r := model.Rect{X: 10, Y: 20, W: 100, H: 50}

		Convey("Then geometry accessors should be consistent", func() {
			So(r.Center(), ShouldResemble, model.Point{X: 60, Y: 45})
			So(r.Area(), ShouldEqual, 5000)
			So(r.Empty(), ShouldBeFalse)
		})

		Convey("Then Contains should use half-open bounds", func() {
			So(r.Contains(10, 20), ShouldBeTrue)
			So(r.Contains(109, 69), ShouldBeTrue)
			So(r.Contains(110, 69), ShouldBeFalse)
			So(r.Contains(9, 20), ShouldBeFalse)
		})

		Convey("Then Inside should detect containment in a larger rect", func() {
			bounds := model.Rect{X: 0, Y: 0, W: 640, H: 480}
			So(r.Inside(bounds), ShouldBeTrue)
			So(model.Rect{X: 600, Y: 0, W: 100, H: 50}.Inside(bounds), ShouldBeFalse)
		})

		Convey("When inflating near the frame edge", func() {
			bounds := model.Rect{X: 0, Y: 0, W: 640, H: 480}
			grown := model.Rect{X: 5, Y: 5, W: 20, H: 20}.Inflate(10, bounds)

			Convey("Then the result should be clipped to bounds", func() {
				So(grown.X, ShouldEqual, 0)
				So(grown.Y, ShouldEqual, 0)
				So(grown.Inside(bounds), ShouldBeTrue)
			})
		})
	})

	Convey("Given an empty rectangle", t, func() {
		So(model.Rect{}.Empty(), ShouldBeTrue)
		So(model.Rect{}.Area(), ShouldEqual, 0)
	})
}

func TestPointDistance(t *testing.T) {
	Convey("Given two points on a 3-4-5 triangle", t, func() {
		a := model.Point{X: 0, Y: 0}
		b := model.Point{X: 3, Y: 4}

		Convey("Then the distance should be 5 in both directions", func() {
			So(a.DistanceTo(b), ShouldAlmostEqual, 5.0)
			So(b.DistanceTo(a), ShouldAlmostEqual, 5.0)
		})
	})
}

func TestParseChannel(t *testing.T) {
	Convey("Given channel names", t, func() {
		Convey("Then known names should parse", func() {
			for name, want := range map[string]model.Channel{
				"red":   model.ChannelRed,
				"g":     model.ChannelGreen,
				"Green": model.ChannelGreen,
				"blue":  model.ChannelBlue,
				"":      model.ChannelGreen,
			} {
				ch, err := model.ParseChannel(name)
				So(err, ShouldBeNil)
				So(ch, ShouldEqual, want)
			}
		})

		Convey("Then unknown names should fail", func() {
			_, err := model.ParseChannel("chartreuse")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFrame(t *testing.T) {
	Convey("Given a 2x2 RGB frame", t, func() {
		f := &model.Frame{
			Width:  2,
			Height: 2,
			Color: []byte{
				10, 20, 30, 40, 50, 60,
				70, 80, 90, 100, 110, 120,
			},
		}

		Convey("Then ColorAt should index channels correctly", func() {
			So(f.ColorAt(0, 0, model.ChannelRed), ShouldEqual, 10)
			So(f.ColorAt(0, 0, model.ChannelGreen), ShouldEqual, 20)
			So(f.ColorAt(1, 0, model.ChannelBlue), ShouldEqual, 60)
			So(f.ColorAt(1, 1, model.ChannelGreen), ShouldEqual, 110)
		})

		Convey("Then Bounds should cover the frame", func() {
			So(f.Bounds(), ShouldResemble, model.Rect{W: 2, H: 2})
		})
	})
}
