package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/guild-jukebox/internal/command"
	"github.com/keshon/guild-jukebox/internal/storage"
	"github.com/keshon/guild-jukebox/pkg/cmd"
)

// WithCommandLogger records every slash invocation in the guild's command history.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)

			sc, ok := command.Slash(inv)
			if !ok || sc.Storage == nil || sc.Event.GuildID == "" {
				return err
			}

			user := command.User(sc.Event)
			record := storage.CommandHistoryRecord{
				ChannelID: sc.Event.ChannelID,
				UserID:    user.ID,
				Username:  user.Username,
				Command:   c.Name(),
				Param:     describeOptions(sc.Event),
			}
			record.GuildName, record.ChannelName = lookupNames(sc.Session, sc.Event.GuildID, sc.Event.ChannelID)

			if lerr := sc.Storage.AppendCommandToHistory(sc.Event.GuildID, record); lerr != nil {
				sc.Log.Warn().Err(lerr).Str("command", c.Name()).Msg("failed to log command")
			}
			return err
		})
	}
}

// describeOptions flattens the invoked subcommand path and its values, e.g. "play url=...".
func describeOptions(e *discordgo.InteractionCreate) string {
	if e.Type != discordgo.InteractionApplicationCommand {
		return ""
	}
	var parts []string
	var walk func(opts []*discordgo.ApplicationCommandInteractionDataOption)
	walk = func(opts []*discordgo.ApplicationCommandInteractionDataOption) {
		for _, o := range opts {
			switch o.Type {
			case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
				parts = append(parts, o.Name)
				walk(o.Options)
			default:
				parts = append(parts, o.Name+"="+stringify(o.Value))
			}
		}
	}
	walk(e.ApplicationCommandData().Options)
	return strings.Join(parts, " ")
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func lookupNames(s *discordgo.Session, guildID, channelID string) (guildName, channelName string) {
	if s == nil || s.State == nil {
		return "", ""
	}
	if g, err := s.State.Guild(guildID); err == nil {
		guildName = g.Name
	}
	if ch, err := s.State.Channel(channelID); err == nil {
		channelName = ch.Name
	}
	return guildName, channelName
}
