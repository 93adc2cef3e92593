// Package roi derives the region-of-interest mask from tracked boxes and
// reduces masked pixel data to one scalar sample per frame.
package roi

import "github.com/pulseworks/rppg/internal/domain/model"

// Mask is a boolean membership test over pixel coordinates: the face
// rectangle minus any eye rectangles. A Mask built from an empty face
// rectangle is undefined and matches nothing.
type Mask struct {
	face model.Rect
	eyes []model.Rect
}

// Build constructs a Mask from the face rectangle and zero or more eye
// rectangles to exclude. It is a pure function of its inputs; callers
// rebuild only when the tracked boxes change.
func Build(face model.Rect, eyes ...model.Rect) Mask {
	if face.Empty() {
		return Mask{}
	}
	kept := make([]model.Rect, 0, len(eyes))
	for _, e := range eyes {
		if !e.Empty() {
			kept = append(kept, e)
		}
	}
	return Mask{face: face, eyes: kept}
}

// Defined reports whether the mask has an underlying face region.
func (m Mask) Defined() bool {
	return !m.face.Empty()
}

// Bounds returns the face rectangle the mask lives in.
func (m Mask) Bounds() model.Rect {
	return m.face
}

// Contains reports whether pixel (x, y) belongs to the region of interest.
func (m Mask) Contains(x, y int) bool {
	if !m.face.Contains(x, y) {
		return false
	}
	for _, e := range m.eyes {
		if e.Contains(x, y) {
			return false
		}
	}
	return true
}
