package pipeline

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrNilDetector = errors.New("face detector is required")
	ErrNilFrame    = errors.New("nil frame")
	ErrFrameSize   = errors.New("frame size does not match pipeline bounds")
	ErrClosed      = errors.New("pipeline is closed")
)
