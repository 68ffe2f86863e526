package middleware

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/guild-jukebox/internal/command"
	"github.com/keshon/guild-jukebox/pkg/cmd"
)

// WithGuildOnly rejects slash invocations made outside a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			sc, ok := command.Slash(inv)
			if ok && sc.Event.GuildID == "" {
				return sc.Responder.RespondEmbedEphemeral(sc.Session, sc.Event, &discordgo.MessageEmbed{
					Description: "You must be in a guild to use this command.",
					Color:       sc.Responder.EmbedColor(),
				})
			}
			return c.Run(ctx, inv)
		})
	}
}
