package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/keshon/guild-jukebox/internal/command/music"
	"github.com/keshon/guild-jukebox/internal/discord"
	"github.com/keshon/guild-jukebox/internal/middleware"
	"github.com/keshon/guild-jukebox/internal/music/controller"
	"github.com/keshon/guild-jukebox/internal/music/manager"
	"github.com/keshon/guild-jukebox/internal/music/player"
	"github.com/keshon/guild-jukebox/internal/music/voice"
	"github.com/keshon/guild-jukebox/internal/storage"
	"github.com/keshon/guild-jukebox/pkg/cmd"
	"github.com/spf13/cobra"
)

type RunParams struct{}

func runCmd() *cobra.Command {
	return boa.CmdT[RunParams]{
		Use:         "run",
		Short:       "Connect to Discord and serve music commands",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *RunParams, c *cobra.Command, args []string) {
			if err := runBot(); err != nil {
				fail(err)
			}
		},
	}.ToCobra()
}

func runBot() error {
	cfg, log, closer, err := setup(false)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.StoragePath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	source, err := newSource(cfg, log)
	if err != nil {
		return err
	}

	dg, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}

	mgr := manager.New(manager.Options{
		Source: source,
		Joiner: voice.NewDiscordJoiner(dg, cfg.VoiceSendTimeout, log),
		Player: player.Options{
			Volume:       cfg.PlayerVolume,
			FetchTimeout: cfg.FetchTimeout,
		},
		Logger: log,
	})

	reg := cmd.NewRegistry()
	bot := discord.New(discord.Options{
		Session:  dg,
		Config:   cfg,
		Storage:  store,
		Registry: reg,
		Sessions: mgr,
		Logger:   log,
	})
	if err := registerCommands(reg, controller.New(mgr, source, log), bot); err != nil {
		return err
	}

	log.Info().Str("storage", cfg.StoragePath).Strs("parsers", cfg.StreamParsers).Msg("starting jukebox")
	if err := bot.Run(ctx); err != nil {
		return err
	}
	log.Info().Msg("jukebox exited cleanly")
	return nil
}

// registerCommands fills reg with every command the bot serves.
func registerCommands(reg *cmd.Registry, ctrl music.Player, locator music.VoiceLocator) error {
	return reg.Register(
		&music.MusicCommand{Player: ctrl, Voice: locator},
		middleware.WithGuildOnly(),
		middleware.WithCommandLogger(),
	)
}
