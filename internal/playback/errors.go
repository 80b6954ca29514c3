package playback

import "errors"

// ErrRaceLost means another advancer changed the station between our read
// and our write. Advance absorbs it by returning the winner's state.
var ErrRaceLost = errors.New("station advanced concurrently")
