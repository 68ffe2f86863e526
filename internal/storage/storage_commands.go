package storage

import (
	"slices"
	"time"
)

type CommandHistoryRecord struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	GuildName   string    `json:"guild_name"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Command     string    `json:"command"`
	Param       string    `json:"param"`
	Datetime    time.Time `json:"datetime"`
}

// AppendCommandToHistory records one invocation, keeping the latest 20.
func (s *Storage) AppendCommandToHistory(guildID string, command CommandHistoryRecord) error {
	if command.Datetime.IsZero() {
		command.Datetime = now()
	}
	return s.update(guildID, func(r *Record) {
		r.CommandsHistory = trimTail(append(r.CommandsHistory, command), commandHistoryLimit)
	})
}

// CommandHistory returns recorded invocations, oldest first.
func (s *Storage) CommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	record, err := s.view(guildID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(record.CommandsHistory), nil
}
