// /internal/storage/storage.go
package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/keshon/guild-jukebox/datastore"
	"github.com/rs/zerolog"
)

const (
	commandHistoryLimit int = 20
	tracksHistoryLimit  int = 12
)

// Storage keeps one Record per guild in the datastore.
type Storage struct {
	ds *datastore.DataStore
	mu sync.Mutex
}

type Record struct {
	CommandsHistory []CommandHistoryRecord `json:"cmd_history"`
	TracksHistory   []PlayedTrack          `json:"tracks_history"`
	StatusChannelID string                 `json:"status_channel_id,omitempty"`
}

func New(filePath string, log zerolog.Logger) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	cfg.Logger = log
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg datastore.Config) (*Storage, error) {
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// update loads the guild record, applies fn and stores the result.
func (s *Storage) update(guildID string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.load(guildID)
	if err != nil {
		return err
	}
	fn(record)
	return s.ds.Put(guildID, record)
}

func (s *Storage) view(guildID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(guildID)
}

func (s *Storage) load(guildID string) (*Record, error) {
	var record Record
	if _, err := s.ds.Get(guildID, &record); err != nil {
		return nil, fmt.Errorf("error reading guild record: %w", err)
	}

	if record.CommandsHistory == nil {
		record.CommandsHistory = []CommandHistoryRecord{}
	}
	if record.TracksHistory == nil {
		record.TracksHistory = []PlayedTrack{}
	}
	return &record, nil
}

func trimTail[T any](list []T, limit int) []T {
	if len(list) > limit {
		return list[len(list)-limit:]
	}
	return list
}

// SetStatusChannel remembers where playback notices for the guild are posted.
func (s *Storage) SetStatusChannel(guildID, channelID string) error {
	return s.update(guildID, func(r *Record) {
		r.StatusChannelID = channelID
	})
}

func (s *Storage) StatusChannel(guildID string) (string, error) {
	record, err := s.view(guildID)
	if err != nil {
		return "", err
	}
	return record.StatusChannelID, nil
}

func now() time.Time { return time.Now().UTC() }
