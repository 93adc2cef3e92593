// Package model contains domain types passed between pipeline stages.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Point is a pixel coordinate in image space.
type Point struct {
	X int
	Y int
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(q Point) float64 {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is an axis-aligned rectangle in image coordinates. Detector
// candidates and tracked regions are both expressed as Rects.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Area returns the rectangle area in pixels.
func (r Rect) Area() int {
	if r.W <= 0 || r.H <= 0 {
		return 0
	}
	return r.W * r.H
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether the pixel (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Inside reports whether r lies fully within outer.
func (r Rect) Inside(outer Rect) bool {
	return r.X >= outer.X && r.Y >= outer.Y &&
		r.X+r.W <= outer.X+outer.W && r.Y+r.H <= outer.Y+outer.H
}

// Inflate grows the rectangle by margin on every side, clipped to bounds.
func (r Rect) Inflate(margin int, bounds Rect) Rect {
	out := Rect{X: r.X - margin, Y: r.Y - margin, W: r.W + 2*margin, H: r.H + 2*margin}
	if out.X < bounds.X {
		out.W -= bounds.X - out.X
		out.X = bounds.X
	}
	if out.Y < bounds.Y {
		out.H -= bounds.Y - out.Y
		out.Y = bounds.Y
	}
	if out.X+out.W > bounds.X+bounds.W {
		out.W = bounds.X + bounds.W - out.X
	}
	if out.Y+out.H > bounds.Y+bounds.H {
		out.H = bounds.Y + bounds.H - out.Y
	}
	return out
}

// Frame is one captured video frame delivered to the pipeline. The pixel
// buffers are owned by the caller and treated as immutable for the duration
// of the call.
type Frame struct {
	Width  int
	Height int

	// Color holds interleaved RGB data, 3 bytes per pixel, row-major.
	Color []byte

	// Gray holds one byte per pixel, row-major. Used for detection.
	Gray []byte

	// Timestamp is the monotonic capture time of the frame.
	Timestamp time.Time
}

// Bounds returns the frame rectangle at origin.
func (f *Frame) Bounds() Rect {
	return Rect{X: 0, Y: 0, W: f.Width, H: f.Height}
}

// ColorAt returns the value of channel ch at pixel (x, y).
func (f *Frame) ColorAt(x, y int, ch Channel) uint8 {
	return f.Color[(y*f.Width+x)*3+int(ch)]
}

// Channel selects a color channel of Frame.Color.
type Channel int

// Color channels in interleaved RGB order.
const (
	ChannelRed Channel = iota
	ChannelGreen
	ChannelBlue
)

// ParseChannel parses a channel name.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "r":
		return ChannelRed, nil
	case "", "green", "g":
		return ChannelGreen, nil
	case "blue", "b":
		return ChannelBlue, nil
	default:
		return ChannelGreen, fmt.Errorf("unknown color channel: %q", s)
	}
}

// Sample is one scalar signal sample tagged with its capture time.
type Sample struct {
	Time  time.Time
	Value float64
}

// Estimate is an aggregated heart-rate estimate emitted to observers.
// It is immutable once emitted.
type Estimate struct {
	ID      string    `json:"id"`
	TrackID string    `json:"track_id"`
	Time    time.Time `json:"time"`
	MeanBpm float64   `json:"mean_bpm"`
	MinBpm  float64   `json:"min_bpm"`
	MaxBpm  float64   `json:"max_bpm"`
	Valid   bool      `json:"valid"`
}
