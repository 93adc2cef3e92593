package detect

import "errors"

// Sentinel kinds for detector errors.
var (
	ErrClassifierLoad = errors.New("classifier load failed")
)
