// Package controller is the entry point the command layer talks to. It turns
// play, stop, skip and list requests into manager calls and reports each
// outcome as a Result with its own status text.
package controller

import (
	"context"
	"errors"

	"github.com/keshon/guild-jukebox/internal/music/manager"
	"github.com/keshon/guild-jukebox/internal/music/queue"
	"github.com/keshon/guild-jukebox/internal/music/sources"
	"github.com/rs/zerolog"
)

// Sessions is the part of manager.Manager the controller drives.
type Sessions interface {
	Play(ctx context.Context, guildID, channelID string, track sources.Track) (manager.PlayResult, error)
	Stop(guildID string) bool
	Skip(guildID string) (sources.Track, bool)
	List(guildID string) []queue.Entry
}

type Controller struct {
	sessions Sessions
	source   sources.StreamSource
	log      zerolog.Logger
}

func New(sessions Sessions, source sources.StreamSource, log zerolog.Logger) *Controller {
	return &Controller{
		sessions: sessions,
		source:   source,
		log:      log.With().Str("component", "controller").Logger(),
	}
}

// Play validates input before touching any session.
func (c *Controller) Play(ctx context.Context, guildID, channelID, input string) Result {
	track, err := c.source.Validate(input)
	if err != nil {
		c.log.Debug().Err(err).Str("guild", guildID).Msg("invalid track")
		return Result{Kind: InvalidTrack, Err: err}
	}

	res, err := c.sessions.Play(ctx, guildID, channelID, track)
	switch {
	case errors.Is(err, queue.ErrEmptyTrack):
		return Result{Kind: InvalidTrack, Err: err}
	case err != nil:
		c.log.Warn().Err(err).Str("guild", guildID).Msg("play failed")
		return Result{Kind: JoinFailed, Track: track, Err: err}
	case res.Outcome == manager.OutcomeQueued:
		return Result{Kind: Queued, Track: res.Track, Position: res.Position}
	default:
		return Result{Kind: NowPlaying, Track: res.Track, Position: res.Position}
	}
}

func (c *Controller) Stop(guildID string) Result {
	if !c.sessions.Stop(guildID) {
		return Result{Kind: NothingPlaying}
	}
	return Result{Kind: Stopped}
}

func (c *Controller) Skip(guildID string) Result {
	track, ok := c.sessions.Skip(guildID)
	if !ok {
		return Result{Kind: NothingPlaying}
	}
	return Result{Kind: Skipped, Track: track}
}

func (c *Controller) List(guildID string) []queue.Entry {
	return c.sessions.List(guildID)
}
