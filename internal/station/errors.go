package station

import "errors"

// Custom station service errors
var (
	// ErrStationNotFound indicates the requested station does not exist
	ErrStationNotFound = errors.New("station not found")

	// ErrSongNotFound indicates the requested song does not exist
	ErrSongNotFound = errors.New("song not found")

	// ErrQueueItemNotFound indicates the queued item does not exist, belongs to
	// another station, or has already been played
	ErrQueueItemNotFound = errors.New("queue item not found")

	// ErrAlreadyQueued indicates the song is already waiting in the station's queue
	ErrAlreadyQueued = errors.New("song already in queue")

	// ErrDuplicateVote indicates the user already voted for the queued item
	ErrDuplicateVote = errors.New("already voted")

	// ErrNotStationOwner indicates a non-owner tried to edit a station
	ErrNotStationOwner = errors.New("only the station creator can edit")

	// ErrInvalidStationName indicates an empty station name
	ErrInvalidStationName = errors.New("station name required")

	// ErrNoUpdates indicates an update request without any valid field
	ErrNoUpdates = errors.New("no valid fields to update")
)

// IsNotFound reports whether err is any of the package's not-found errors
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStationNotFound) ||
		errors.Is(err, ErrSongNotFound) ||
		errors.Is(err, ErrQueueItemNotFound)
}

// IsConflict reports whether err is an expected duplicate rejection
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyQueued) || errors.Is(err, ErrDuplicateVote)
}

// IsStationNotFound checks if the error is a station not found error
func IsStationNotFound(err error) bool {
	return errors.Is(err, ErrStationNotFound)
}

// IsDuplicateVote checks if the error is a duplicate vote error
func IsDuplicateVote(err error) bool {
	return errors.Is(err, ErrDuplicateVote)
}
