package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/guild-jukebox/internal/command"
)

const globalScope = "global"

// RegisterCommands publishes the registry's slash definitions, to the
// configured guild when DISCORD_GUILD_ID is set and globally otherwise.
// Unless force is set, nothing is sent when the definitions match the hash
// stored after the last registration. It reports whether anything was sent.
func (b *Bot) RegisterCommands(force bool) (bool, error) {
	appID, err := b.appID()
	if err != nil {
		return false, err
	}

	defs := command.Definitions(b.registry.All())
	hash := hashCommands(defs)
	scope := b.scope()
	log := b.log.With().Str("scope", scope).Int("commands", len(defs)).Logger()

	if !force && b.storage != nil {
		if stored, err := b.storage.CommandsHash(scope); err == nil && stored == hash {
			log.Info().Msg("slash commands unchanged, registration skipped")
			return false, nil
		}
	}

	if _, err := b.dg.ApplicationCommandBulkOverwrite(appID, b.cfg.DiscordGuildID, defs); err != nil {
		return false, fmt.Errorf("failed to register commands: %w", err)
	}
	if b.storage != nil {
		if err := b.storage.SetCommandsHash(scope, hash); err != nil {
			log.Warn().Err(err).Msg("failed to store commands hash")
		}
	}
	log.Info().Msg("slash commands registered")
	return true, nil
}

// ClearCommands removes every slash command of the bot in its scope.
func (b *Bot) ClearCommands() error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	if _, err := b.dg.ApplicationCommandBulkOverwrite(appID, b.cfg.DiscordGuildID, []*discordgo.ApplicationCommand{}); err != nil {
		return fmt.Errorf("failed to clear commands: %w", err)
	}
	if b.storage != nil {
		if err := b.storage.SetCommandsHash(b.scope(), ""); err != nil {
			b.log.Warn().Err(err).Msg("failed to reset commands hash")
		}
	}
	b.log.Info().Str("scope", b.scope()).Msg("slash commands cleared")
	return nil
}

func (b *Bot) scope() string {
	if b.cfg.DiscordGuildID != "" {
		return b.cfg.DiscordGuildID
	}
	return globalScope
}

func (b *Bot) appID() (string, error) {
	if b.cfg.DiscordAppID != "" {
		return b.cfg.DiscordAppID, nil
	}
	if b.dg.State != nil && b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	user, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to resolve application id: %w", err)
	}
	return user.ID, nil
}
