// /internal/command/command.go
package command

import (
	"github.com/bwmarrin/discordgo"
	"github.com/keshon/guild-jukebox/internal/storage"
	"github.com/keshon/guild-jukebox/pkg/cmd"
	"github.com/rs/zerolog"
)

// SlashProvider is implemented by commands exposed as Discord slash commands.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// Responder sends interaction replies so commands never import the discord
// package directly.
type Responder interface {
	RespondEmbed(s *discordgo.Session, e *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error
	RespondEmbedEphemeral(s *discordgo.Session, e *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error
	RespondDeferred(s *discordgo.Session, e *discordgo.InteractionCreate) error
	FollowupEmbed(s *discordgo.Session, e *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error
	EmbedColor() int
}

// SlashContext is the Invocation.Data of a slash command run.
type SlashContext struct {
	Session   *discordgo.Session
	Event     *discordgo.InteractionCreate
	Storage   *storage.Storage
	Responder Responder
	Log       zerolog.Logger
}

// Slash extracts the slash context from inv.
func Slash(inv *cmd.Invocation) (*SlashContext, bool) {
	if inv == nil {
		return nil, false
	}
	ctx, ok := inv.Data.(*SlashContext)
	return ctx, ok && ctx.Event != nil
}

// Definitions collects slash definitions of cmds, looking through middleware.
func Definitions(cmds []cmd.Command) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range cmds {
		slash, ok := cmd.Root(c).(SlashProvider)
		if !ok {
			continue
		}
		def := slash.SlashDefinition()
		if def == nil {
			continue
		}
		if def.Type == 0 {
			def.Type = discordgo.ChatApplicationCommand
		}
		defs = append(defs, def)
	}
	return defs
}

// User returns the invoking user of e.
func User(e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	if e.User != nil {
		return e.User
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}
