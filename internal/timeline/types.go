package timeline

import "time"

// Position describes where playback of a single track stands at a given
// moment, derived from the wall clock and the track's start time.
type Position struct {
	// Offset is how far into the track playback is, clamped to [0, Duration]
	Offset time.Duration

	// StartedAt is when the track started playing
	StartedAt time.Time

	// EndsAt is StartedAt + Duration
	EndsAt time.Time

	// Duration is the effective length of the track
	Duration time.Duration

	// Finished is true once the clock has reached EndsAt
	Finished bool
}

// OffsetSeconds returns Offset in (fractional) seconds
func (p *Position) OffsetSeconds() float64 {
	return p.Offset.Seconds()
}

// Remaining returns how much of the track is left
func (p *Position) Remaining() time.Duration {
	return p.Duration - p.Offset
}

// State is the playback state of a station
type State string

const (
	// StateIdle means the station has no now-playing record
	StateIdle State = "idle"

	// StatePlaying means a track is playing and has time left
	StatePlaying State = "playing"

	// StateFinished means the current track's time is up and the station
	// is waiting to be advanced
	StateFinished State = "finished"
)
