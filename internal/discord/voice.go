package discord

import "github.com/bwmarrin/discordgo"

// UserVoiceChannel reports the voice channel userID is connected to in guildID.
func (b *Bot) UserVoiceChannel(guildID, userID string) (string, bool) {
	vs, err := b.dg.State.VoiceState(guildID, userID)
	if err != nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

// onVoiceStateUpdate tears the guild session down when the bot itself was
// disconnected or moved out of its channel.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if s.State == nil || s.State.User == nil || vs.VoiceState == nil || vs.UserID != s.State.User.ID {
		return
	}
	if vs.BeforeUpdate == nil || vs.BeforeUpdate.ChannelID == "" || vs.BeforeUpdate.ChannelID == vs.ChannelID {
		return
	}

	// State is updated before handlers run, so the cache holds the newest
	// position. Back in the same channel means this update is stale.
	left := vs.BeforeUpdate.ChannelID
	if cur, err := s.State.VoiceState(vs.GuildID, vs.UserID); err == nil && cur.ChannelID == left {
		b.log.Debug().Str("guild", vs.GuildID).Str("channel", left).Msg("stale voice state update ignored")
		return
	}

	if b.sessions.Disconnect(vs.GuildID, left) {
		b.log.Warn().
			Str("guild", vs.GuildID).
			Str("channel", left).
			Msg("bot left the voice channel, session closed")
	}
}
