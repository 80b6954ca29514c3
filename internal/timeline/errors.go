package timeline

import "errors"

// ErrInvalidDuration is returned when a position is requested for a track
// with a zero or negative duration
var ErrInvalidDuration = errors.New("track duration must be positive")
