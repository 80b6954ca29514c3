package playback

import (
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/grooveray/internal/models"
	"github.com/stwalsh4118/grooveray/internal/timeline"
)

// NowPlayingView is what clients receive for a station's current track.
// Listeners seek to PositionSeconds, or recompute it from StartedAt using
// ServerTime to correct for clock skew.
type NowPlayingView struct {
	QueueID         uuid.UUID          `json:"queue_id"`
	State           timeline.State     `json:"state"`
	StartedAt       time.Time          `json:"started_at"`
	Item            *models.QueuedItem `json:"item"`
	PositionSeconds float64            `json:"position_seconds"`
	DurationSeconds float64            `json:"duration_seconds"`
	EndsAt          time.Time          `json:"ends_at"`
	ServerTime      time.Time          `json:"server_time"`
}

// State is the outcome of an advance: the now-playing view (nil when the
// station is idle) and the items waiting after it in playback order.
type State struct {
	NowPlaying *NowPlayingView      `json:"now_playing"`
	Queue      []*models.QueuedItem `json:"queue"`
}

func newView(np *models.NowPlaying, item *models.QueuedItem, pos *timeline.Position, now time.Time) *NowPlayingView {
	return &NowPlayingView{
		QueueID:         np.QueueID,
		State:           timeline.StateAt(pos),
		StartedAt:       np.StartedAt.UTC(),
		Item:            item,
		PositionSeconds: pos.OffsetSeconds(),
		DurationSeconds: pos.Duration.Seconds(),
		EndsAt:          pos.EndsAt.UTC(),
		ServerTime:      now.UTC(),
	}
}

// upNext drops the now-playing item from a ranked queue
func upNext(queue []*models.QueuedItem, playing uuid.UUID) []*models.QueuedItem {
	out := make([]*models.QueuedItem, 0, len(queue))
	for _, item := range queue {
		if item.ID != playing {
			out = append(out, item)
		}
	}
	return out
}
