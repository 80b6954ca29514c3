package db

import "gorm.io/gorm"

// Repositories provides access to all database repositories
type Repositories struct {
	Stations   *StationRepository
	Songs      *SongRepository
	Queue      *QueueRepository
	Votes      *VoteRepository
	NowPlaying *NowPlayingRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Stations:   NewStationRepository(db),
		Songs:      NewSongRepository(db),
		Queue:      NewQueueRepository(db),
		Votes:      NewVoteRepository(db),
		NowPlaying: NewNowPlayingRepository(db),
	}
}

// WithTx returns a collection whose repositories all run on tx
func (r *Repositories) WithTx(tx *gorm.DB) *Repositories {
	return &Repositories{
		Stations:   r.Stations.WithTx(tx),
		Songs:      r.Songs.WithTx(tx),
		Queue:      r.Queue.WithTx(tx),
		Votes:      r.Votes.WithTx(tx),
		NowPlaying: r.NowPlaying.WithTx(tx),
	}
}
