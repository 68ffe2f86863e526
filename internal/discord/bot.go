package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/guild-jukebox/internal/command"
	"github.com/keshon/guild-jukebox/internal/config"
	"github.com/keshon/guild-jukebox/internal/music/manager"
	"github.com/keshon/guild-jukebox/internal/storage"
	"github.com/keshon/guild-jukebox/pkg/cmd"
	"github.com/rs/zerolog"
)

// Sessions is the part of manager.Manager the bot drives directly.
type Sessions interface {
	Disconnect(guildID, channelID string) bool
	Events() <-chan manager.Event
	Shutdown()
}

type Options struct {
	Session  *discordgo.Session
	Config   *config.Config
	Storage  *storage.Storage
	Registry *cmd.Registry
	Sessions Sessions
	Logger   zerolog.Logger
}

// Bot dispatches slash commands and relays playback events to Discord.
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	storage  *storage.Storage
	registry *cmd.Registry
	sessions Sessions
	log      zerolog.Logger

	ctx  context.Context
	post func(channelID string, embed *discordgo.MessageEmbed) error
}

// NewSession creates a session with the intents the bot needs: guilds for
// state and voice states for locating members.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	return dg, nil
}

func New(opts Options) *Bot {
	b := &Bot{
		dg:       opts.Session,
		cfg:      opts.Config,
		storage:  opts.Storage,
		registry: opts.Registry,
		sessions: opts.Sessions,
		log:      opts.Logger.With().Str("component", "discord").Logger(),
		ctx:      context.Background(),
	}
	b.post = func(channelID string, embed *discordgo.MessageEmbed) error {
		return MessageEmbed(b.dg, channelID, embed)
	}
	return b
}

// Run opens the gateway and blocks until ctx is done. All guild sessions are
// closed before the gateway is.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onInteractionCreate)
	b.dg.AddHandler(b.onVoiceStateUpdate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	go b.listenEvents(ctx)

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, leaving voice channels")
	b.sessions.Shutdown()
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("discord bot is running")

	if !b.cfg.InitSlashCommands {
		b.log.Info().Msg("slash command registration skipped")
		return
	}
	if _, err := b.RegisterCommands(false); err != nil {
		b.log.Error().Err(err).Msg("slash command registration failed")
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		b.log.Debug().Int("type", int(i.Type)).Msg("ignoring interaction")
		return
	}
	data := i.ApplicationCommandData()
	if data.CommandType != discordgo.ChatApplicationCommand {
		return
	}

	c, ok := b.registry.Get(data.Name)
	if !ok {
		b.log.Warn().Str("command", data.Name).Msg("unknown command")
		return
	}

	log := b.log.With().Str("guild", i.GuildID).Str("command", data.Name).Logger()
	inv := &cmd.Invocation{Data: &command.SlashContext{
		Session:   s,
		Event:     i,
		Storage:   b.storage,
		Responder: DefaultResponder,
		Log:       log,
	}}
	if err := c.Run(b.ctx, inv); err != nil {
		log.Error().Err(err).Msg("error running slash command")
		if rerr := RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Error running slash command: %v", err),
			Color:       EmbedColor,
		}); rerr != nil {
			log.Debug().Err(rerr).Msg("error reply failed")
		}
	}
}
