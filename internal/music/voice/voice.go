// Package voice joins Discord voice channels and carries encoded audio into them.
package voice

import (
	"context"
	"errors"
)

// ErrTransportLost reports that a joined voice channel can no longer carry audio.
var ErrTransportLost = errors.New("voice transport lost")

// Link is one joined voice channel.
type Link interface {
	// Speaking toggles the speaking indicator around emission.
	Speaking(speaking bool) error
	// SendOpus delivers one encoded frame. Failures wrap ErrTransportLost.
	SendOpus(ctx context.Context, frame []byte) error
	// Teardown leaves the channel. Safe to call more than once.
	Teardown() error
}

// Joiner establishes voice links.
type Joiner interface {
	Join(ctx context.Context, guildID, channelID string) (Link, error)
}
