// Package detect defines the external object-detection capability the
// pipeline depends on, plus concrete adapters. The pipeline treats a
// detector as stateless: given an image region it returns zero or more
// candidate rectangles with no persistence across calls.
package detect

import "github.com/pulseworks/rppg/internal/domain/model"

// Detector is the stateless detection capability. Any concrete detector
// implementation (classical cascade, learned model) can satisfy it.
type Detector interface {
	// Detect scans the frame restricted to region and returns candidate
	// rectangles in full-frame coordinates. A miss is an empty slice,
	// never an error.
	Detect(frame *model.Frame, region model.Rect) []model.Rect

	// Close releases any resources held by the detector.
	Close() error
}

// Func adapts a plain function to the Detector interface. Useful for
// scripted detectors in tests and synthetic feeds.
type Func func(frame *model.Frame, region model.Rect) []model.Rect

// Detect implements Detector.
func (f Func) Detect(frame *model.Frame, region model.Rect) []model.Rect {
	return f(frame, region)
}

// Close implements Detector.
func (f Func) Close() error { return nil }
