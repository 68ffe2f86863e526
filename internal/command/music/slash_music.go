package music

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/guild-jukebox/internal/command"
	"github.com/keshon/guild-jukebox/internal/music/controller"
	"github.com/keshon/guild-jukebox/internal/music/queue"
	"github.com/keshon/guild-jukebox/pkg/cmd"
)

const notInVoice = "You need to be in a voice channel to use this command!"

// Player is the playback surface the command drives; *controller.Controller satisfies it.
type Player interface {
	Play(ctx context.Context, guildID, channelID, input string) controller.Result
	Stop(guildID string) controller.Result
	Skip(guildID string) controller.Result
	List(guildID string) []queue.Entry
}

// VoiceLocator finds the voice channel a member is connected to.
type VoiceLocator interface {
	UserVoiceChannel(guildID, userID string) (string, bool)
}

type MusicCommand struct {
	Player Player
	Voice  VoiceLocator
}

func (c *MusicCommand) Name() string        { return "music" }
func (c *MusicCommand) Description() string { return "Control music playback" }

func (c *MusicCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Play a YouTube video or add it to the queue",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "url",
						Description: "YouTube video URL",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "skip",
				Description: "Skip the current track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stop",
				Description: "Stop playback, clear the queue and leave",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "Show the queue",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "history",
				Description: "Show recently played tracks",
			},
		},
	}
}

func (c *MusicCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, ok := command.Slash(inv)
	if !ok {
		return nil
	}

	e := sc.Event
	opts := e.ApplicationCommandData().Options
	if len(opts) == 0 {
		return c.reply(sc, "Missing subcommand.", true)
	}

	sub := opts[0]
	switch sub.Name {
	case "play":
		var url string
		for _, opt := range sub.Options {
			if opt.Name == "url" {
				url = opt.StringValue()
			}
		}
		return c.runPlay(ctx, sc, url)
	case "skip":
		return c.replyResult(sc, c.Player.Skip(e.GuildID))
	case "stop":
		return c.replyResult(sc, c.Player.Stop(e.GuildID))
	case "list":
		return c.reply(sc, codeBlock(controller.RenderQueue(c.Player.List(e.GuildID))), false)
	case "history":
		return c.runHistory(sc)
	default:
		return c.reply(sc, fmt.Sprintf("Unknown subcommand: %s", sub.Name), true)
	}
}

func (c *MusicCommand) runPlay(ctx context.Context, sc *command.SlashContext, url string) error {
	e := sc.Event
	user := command.User(e)

	channelID, ok := c.Voice.UserVoiceChannel(e.GuildID, user.ID)
	if !ok {
		return c.reply(sc, notInVoice, true)
	}

	if err := sc.Responder.RespondDeferred(sc.Session, e); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	res := c.Player.Play(ctx, e.GuildID, channelID, url)
	if !res.IsError() && sc.Storage != nil {
		if err := sc.Storage.SetStatusChannel(e.GuildID, e.ChannelID); err != nil {
			sc.Log.Warn().Err(err).Str("guild", e.GuildID).Msg("failed to store status channel")
		}
	}
	return sc.Responder.FollowupEmbed(sc.Session, e, c.resultEmbed(sc, res))
}

func (c *MusicCommand) reply(sc *command.SlashContext, text string, ephemeral bool) error {
	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Music",
		Description: text,
		Color:       sc.Responder.EmbedColor(),
	}
	if ephemeral {
		return sc.Responder.RespondEmbedEphemeral(sc.Session, sc.Event, embed)
	}
	return sc.Responder.RespondEmbed(sc.Session, sc.Event, embed)
}

func (c *MusicCommand) replyResult(sc *command.SlashContext, res controller.Result) error {
	embed := c.resultEmbed(sc, res)
	if res.Kind == controller.NothingPlaying {
		return sc.Responder.RespondEmbedEphemeral(sc.Session, sc.Event, embed)
	}
	return sc.Responder.RespondEmbed(sc.Session, sc.Event, embed)
}

func (c *MusicCommand) resultEmbed(sc *command.SlashContext, res controller.Result) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Music",
		Description: res.String(),
		Color:       sc.Responder.EmbedColor(),
	}
	if res.Track.URL != "" && !res.IsError() {
		embed.URL = res.Track.URL
	}
	return embed
}

func codeBlock(s string) string {
	return "```\n" + s + "\n```"
}
