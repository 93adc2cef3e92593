package detect

import (
	"fmt"
	"image"

	"github.com/pulseworks/rppg/internal/domain/model"
	"gocv.io/x/gocv"
)

// CascadeOption applies a configuration option to the Cascade.
type CascadeOption func(*Cascade)

// WithMinSize discards candidates smaller than minSize pixels on a side.
func WithMinSize(minSize int) CascadeOption {
	return func(c *Cascade) {
		if minSize > 0 {
			c.minSize = minSize
		}
	}
}

// Cascade is a Haar-cascade Detector backed by OpenCV. A missing or
// unreadable classifier resource is a construction-time failure; the
// pipeline must not be used with an uninitialized detector.
type Cascade struct {
	classifier gocv.CascadeClassifier
	minSize    int
}

// NewCascade loads the classifier resource at path.
func NewCascade(path string, opts ...CascadeOption) (*Cascade, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		_ = classifier.Close()
		return nil, fmt.Errorf("%w: %s", ErrClassifierLoad, path)
	}

	c := &Cascade{classifier: classifier}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Detect implements Detector over the frame's grayscale plane.
func (c *Cascade) Detect(frame *model.Frame, region model.Rect) []model.Rect {
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC1, frame.Gray)
	if err != nil {
		return nil
	}
	defer mat.Close()

	sub := mat.Region(image.Rect(region.X, region.Y, region.X+region.W, region.Y+region.H))
	defer sub.Close()

	var out []model.Rect
	for _, r := range c.classifier.DetectMultiScale(sub) {
		box := model.Rect{
			X: region.X + r.Min.X,
			Y: region.Y + r.Min.Y,
			W: r.Dx(),
			H: r.Dy(),
		}
		if c.minSize > 0 && (box.W < c.minSize || box.H < c.minSize) {
			continue
		}
		out = append(out, box)
	}
	return out
}

// Close releases the classifier.
func (c *Cascade) Close() error {
	return c.classifier.Close()
}
