package roi

import "github.com/pulseworks/rppg/internal/domain/model"

// Extractor reduces the pixels inside a mask to the spatial mean of one
// color channel. Green is the conventional choice for blood-volume pulse.
type Extractor struct {
	channel model.Channel
}

// NewExtractor creates an Extractor for the given channel.
func NewExtractor(channel model.Channel) *Extractor {
	return &Extractor{channel: channel}
}

// Channel returns the channel the extractor samples.
func (e *Extractor) Channel() model.Channel {
	return e.channel
}

// Extract computes the spatial mean of the configured channel over all
// mask pixels that lie inside the frame. The second return value is false
// when the mask is undefined or covers no frame pixels, in which case no
// sample should be appended for this frame.
func (e *Extractor) Extract(frame *model.Frame, mask Mask) (float64, bool) {
	if !mask.Defined() {
		return 0, false
	}

	bounds := mask.Bounds()
	x0, y0 := max(bounds.X, 0), max(bounds.Y, 0)
	x1, y1 := min(bounds.X+bounds.W, frame.Width), min(bounds.Y+bounds.H, frame.Height)

	var sum float64
	var count int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if !mask.Contains(x, y) {
				continue
			}
			sum += float64(frame.ColorAt(x, y, e.channel))
			count++
		}
	}

	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
