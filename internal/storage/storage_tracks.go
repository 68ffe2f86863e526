package storage

import (
	"slices"
	"time"
)

type PlayedTrack struct {
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	Source   string    `json:"source"`
	PlayedAt time.Time `json:"played_at"`
}

// AppendPlayedTrack records a track that started playing, keeping the latest 12.
func (s *Storage) AppendPlayedTrack(guildID string, track PlayedTrack) error {
	if track.PlayedAt.IsZero() {
		track.PlayedAt = now()
	}
	return s.update(guildID, func(r *Record) {
		r.TracksHistory = trimTail(append(r.TracksHistory, track), tracksHistoryLimit)
	})
}

// TracksHistory returns played tracks, most recent first.
func (s *Storage) TracksHistory(guildID string) ([]PlayedTrack, error) {
	record, err := s.view(guildID)
	if err != nil {
		return nil, err
	}
	history := slices.Clone(record.TracksHistory)
	slices.Reverse(history)
	return history, nil
}
