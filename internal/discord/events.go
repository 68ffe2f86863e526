package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/guild-jukebox/internal/music/controller"
	"github.com/keshon/guild-jukebox/internal/music/manager"
	"github.com/keshon/guild-jukebox/internal/storage"
)

func (b *Bot) listenEvents(ctx context.Context) {
	events := b.sessions.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.handleEvent(ev)
		case <-ctx.Done():
			return
		}
	}
}

// handleEvent records played tracks and posts the event to the guild's
// status channel, if one is known.
func (b *Bot) handleEvent(ev manager.Event) {
	log := b.log.With().Str("guild", ev.GuildID).Str("event", string(ev.Kind)).Logger()
	if ev.Err != nil {
		log.Debug().Err(ev.Err).Msg("playback event")
	}
	if b.storage == nil {
		return
	}

	if ev.Kind == manager.EventNowPlaying {
		err := b.storage.AppendPlayedTrack(ev.GuildID, storage.PlayedTrack{
			URL:    ev.Track.URL,
			Title:  ev.Track.Title,
			Source: ev.Track.SourceName,
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to record played track")
		}
	}

	channelID, err := b.storage.StatusChannel(ev.GuildID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read status channel")
		return
	}
	if channelID == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Description: controller.DescribeEvent(ev),
		Color:       EmbedColor,
	}
	if err := b.post(channelID, embed); err != nil {
		log.Warn().Err(err).Str("channel", channelID).Msg("failed to post status")
	}
}
