// Package source provides frame sources for demos and integration tests.
// Camera capture is a host-application concern; the synthetic source
// stands in for it with a face patch whose green channel pulses at a
// configured heart rate.
package source

import (
	"math"
	"math/rand"
	"time"

	"github.com/pulseworks/rppg/internal/adapters/detect"
	"github.com/pulseworks/rppg/internal/domain/model"
)

// Default synthetic source configuration constants.
const (
	defaultBpm       = 72.0
	defaultAmplitude = 6.0
	defaultBaseline  = 120.0
	defaultSeed      = 42
)

// Option applies a configuration option to the Synthetic source.
type Option func(*Synthetic)

// WithBpm sets the simulated heart rate.
func WithBpm(bpm float64) Option {
	return func(s *Synthetic) {
		if bpm > 0 {
			s.bpm = bpm
		}
	}
}

// WithAmplitude sets the pulse amplitude in channel units.
func WithAmplitude(a float64) Option {
	return func(s *Synthetic) {
		if a > 0 {
			s.amplitude = a
		}
	}
}

// WithNoise sets the per-frame Gaussian noise sigma in channel units.
func WithNoise(sigma float64) Option {
	return func(s *Synthetic) {
		if sigma >= 0 {
			s.noise = sigma
		}
	}
}

// WithDrift sets a linear baseline drift in channel units per second,
// simulating slow illumination change.
func WithDrift(perSecond float64) Option {
	return func(s *Synthetic) {
		s.drift = perSecond
	}
}

// WithFace overrides the face rectangle.
func WithFace(face model.Rect) Option {
	return func(s *Synthetic) {
		if !face.Empty() {
			s.face = face
		}
	}
}

// WithSeed sets the noise seed for reproducible runs.
func WithSeed(seed int64) Option {
	return func(s *Synthetic) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic seed for reproducible frames
	}
}

// Synthetic generates frames with a pulsing face patch. It is not safe
// for concurrent use.
type Synthetic struct {
	width  int
	height int
	face   model.Rect

	bpm       float64
	amplitude float64
	noise     float64
	drift     float64
	rng       *rand.Rand
}

// New creates a Synthetic source for width x height frames. The default
// face patch is centered and covers a third of the frame.
func New(width, height int, opts ...Option) *Synthetic {
	s := &Synthetic{
		width:  width,
		height: height,
		face: model.Rect{
			X: width / 3,
			Y: height / 3,
			W: width / 3,
			H: height / 3,
		},
		bpm:       defaultBpm,
		amplitude: defaultAmplitude,
		rng:       rand.New(rand.NewSource(defaultSeed)), //nolint:gosec // deterministic seed for reproducible frames
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Face returns the face rectangle the source paints.
func (s *Synthetic) Face() model.Rect {
	return s.face
}

// Frame renders the frame at the given elapsed time, stamped with ts.
func (s *Synthetic) Frame(elapsed time.Duration, ts time.Time) *model.Frame {
	t := elapsed.Seconds()
	pulse := s.amplitude * math.Sin(2*math.Pi*s.bpm/60*t)
	level := defaultBaseline + pulse + s.drift*t
	if s.noise > 0 {
		level += s.noise * s.rng.NormFloat64()
	}
	green := clampByte(level)

	color := make([]byte, s.width*s.height*3)
	gray := make([]byte, s.width*s.height)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			i := y*s.width + x
			if s.face.Contains(x, y) {
				color[i*3] = 90
				color[i*3+1] = green
				color[i*3+2] = 80
				gray[i] = 160
			} else {
				color[i*3] = 30
				color[i*3+1] = 30
				color[i*3+2] = 30
				gray[i] = 30
			}
		}
	}

	return &model.Frame{
		Width:     s.width,
		Height:    s.height,
		Color:     color,
		Gray:      gray,
		Timestamp: ts,
	}
}

// FaceDetector returns a scripted detector that reports the painted face
// whenever it intersects the search region.
func (s *Synthetic) FaceDetector() detect.Detector {
	return detect.Func(func(_ *model.Frame, region model.Rect) []model.Rect {
		center := s.face.Center()
		if !region.Contains(center.X, center.Y) {
			return nil
		}
		return []model.Rect{s.face}
	})
}

// EyeDetector returns a scripted detector that reports two eye boxes in
// the upper half of the painted face.
func (s *Synthetic) EyeDetector() detect.Detector {
	return detect.Func(func(_ *model.Frame, region model.Rect) []model.Rect {
		eyeW, eyeH := s.face.W/6, s.face.H/10
		y := s.face.Y + s.face.H/4
		left := model.Rect{X: s.face.X + s.face.W/5, Y: y, W: eyeW, H: eyeH}
		right := model.Rect{X: s.face.X + s.face.W*3/5, Y: y, W: eyeW, H: eyeH}
		return []model.Rect{left, right}
	})
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(math.Round(v))
}
