package track

import "github.com/pulseworks/rppg/internal/domain/model"

// Default eye locator configuration constants.
const (
	defaultUpperFraction = 0.5
)

// Eyes holds the located eye rectangles.
//
// Left and Right name image (viewer) coordinates, not the subject's
// anatomy: Left is the eye with the smaller x coordinate, which is the
// subject's right eye. This convention is fixed across the pipeline.
type Eyes struct {
	Left  model.Rect
	Right model.Rect
	Valid bool
}

// LocatorOption applies a configuration option to the Locator.
type LocatorOption func(*Locator)

// WithUpperFraction sets the portion of the face box, measured from the
// top, that is scanned for eyes.
func WithUpperFraction(f float64) LocatorOption {
	return func(l *Locator) {
		if f > 0 && f <= 1 {
			l.upperFraction = f
		}
	}
}

// Locator partitions eye candidates around the face midline.
type Locator struct {
	upperFraction float64
}

// NewLocator creates a Locator with default configuration.
func NewLocator(opts ...LocatorOption) *Locator {
	l := &Locator{
		upperFraction: defaultUpperFraction,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// SearchRegion returns the sub-region of the face box the eye detector
// should scan.
func (l *Locator) SearchRegion(face model.Rect) model.Rect {
	return model.Rect{
		X: face.X,
		Y: face.Y,
		W: face.W,
		H: int(float64(face.H) * l.upperFraction),
	}
}

// Locate assigns detector candidates to the left and right eye. Candidates
// whose center lies left of the face midline compete for the left slot,
// the rest for the right slot; the largest candidate wins each side. Eyes
// are invalid unless both sides are filled, in which case the caller falls
// back to the full face rectangle for the mask.
func (l *Locator) Locate(face model.Rect, candidates []model.Rect) Eyes {
	if face.Empty() {
		return Eyes{}
	}

	midline := face.Center().X
	var left, right model.Rect
	var haveLeft, haveRight bool

	for _, c := range candidates {
		center := c.Center()
		if !face.Contains(center.X, center.Y) {
			continue
		}
		if center.X < midline {
			if !haveLeft || c.Area() > left.Area() {
				left, haveLeft = c, true
			}
		} else {
			if !haveRight || c.Area() > right.Area() {
				right, haveRight = c, true
			}
		}
	}

	if !haveLeft || !haveRight {
		return Eyes{}
	}

	return Eyes{Left: left, Right: right, Valid: true}
}
