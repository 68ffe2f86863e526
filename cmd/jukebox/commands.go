package main

import (
	"fmt"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/keshon/guild-jukebox/internal/discord"
	"github.com/keshon/guild-jukebox/internal/storage"
	"github.com/keshon/guild-jukebox/pkg/cmd"
	"github.com/spf13/cobra"
)

type RegisterParams struct {
	Force bool `short:"f" optional:"true" help:"Overwrite even when the definitions are unchanged."`
}

type ClearParams struct{}

func commandsCmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "commands",
		Short: "Manage the bot's slash commands",
		Long: `Publishes or removes the bot's slash commands. Commands go to the guild
named by DISCORD_GUILD_ID when it is set, and are registered globally otherwise.`,
		SubCmds: []*cobra.Command{
			boa.CmdT[RegisterParams]{
				Use:         "register",
				Short:       "Register slash commands",
				ParamEnrich: defaultParamEnricher(),
				RunFunc: func(params *RegisterParams, c *cobra.Command, args []string) {
					if err := withAdminBot(func(bot *discord.Bot) error {
						sent, err := bot.RegisterCommands(params.Force)
						if err == nil && !sent {
							fmt.Println("Slash commands are up to date (use --force to overwrite).")
						}
						return err
					}); err != nil {
						fail(err)
					}
				},
			}.ToCobra(),
			boa.CmdT[ClearParams]{
				Use:         "clear",
				Short:       "Remove all slash commands",
				ParamEnrich: defaultParamEnricher(),
				RunFunc: func(params *ClearParams, c *cobra.Command, args []string) {
					if err := withAdminBot(func(bot *discord.Bot) error {
						return bot.ClearCommands()
					}); err != nil {
						fail(err)
					}
				},
			}.ToCobra(),
		},
	}.ToCobra()
}

// withAdminBot runs fn against a bot that talks to the REST API only; no
// gateway connection is opened.
func withAdminBot(fn func(bot *discord.Bot) error) error {
	cfg, log, closer, err := setup(false)
	if err != nil {
		return err
	}
	defer closer.Close()

	store, err := storage.New(cfg.StoragePath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	dg, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}

	reg := cmd.NewRegistry()
	if err := registerCommands(reg, nil, nil); err != nil {
		return err
	}
	return fn(discord.New(discord.Options{
		Session:  dg,
		Config:   cfg,
		Storage:  store,
		Registry: reg,
		Logger:   log,
	}))
}
