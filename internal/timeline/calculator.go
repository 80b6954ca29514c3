// Package timeline provides the wall-clock math behind synchronized playback:
// every listener derives the same position from a shared start time.
package timeline

import "time"

// DefaultTrackDuration is used for tracks whose duration is unknown
const DefaultTrackDuration = 60 * time.Second

// EffectiveDuration converts a stored duration in seconds into the duration
// playback uses. Missing, zero, and negative values fall back to fallback,
// and to DefaultTrackDuration when fallback itself is not positive.
func EffectiveDuration(seconds *int64, fallback time.Duration) time.Duration {
	if fallback <= 0 {
		fallback = DefaultTrackDuration
	}
	if seconds == nil || *seconds <= 0 {
		return fallback
	}
	return time.Duration(*seconds) * time.Second
}

// CalculatePosition computes the playback position of a track that started
// at startedAt, as seen at now. This is a pure function with no I/O.
//
// A start time in the future (clock skew between writers) yields offset 0;
// once now reaches the end the offset stays at duration and Finished is set.
func CalculatePosition(startedAt, now time.Time, duration time.Duration) (*Position, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	endsAt := startedAt.Add(duration)
	elapsed := now.Sub(startedAt)

	offset := elapsed
	if offset < 0 {
		offset = 0
	}
	if offset > duration {
		offset = duration
	}

	return &Position{
		Offset:    offset,
		StartedAt: startedAt,
		EndsAt:    endsAt,
		Duration:  duration,
		Finished:  !now.Before(endsAt),
	}, nil
}

// StateAt classifies a station's playback at now. A nil position means the
// station has nothing playing.
func StateAt(pos *Position) State {
	switch {
	case pos == nil:
		return StateIdle
	case pos.Finished:
		return StateFinished
	default:
		return StatePlaying
	}
}
