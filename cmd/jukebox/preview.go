package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/keshon/guild-jukebox/internal/preview"
	"github.com/spf13/cobra"
)

type PreviewParams struct {
	URL    string  `pos:"true" required:"true" help:"YouTube video URL to play."`
	Volume float64 `optional:"true" help:"Playback volume in (0, 1]; defaults to PLAYER_VOLUME." default:"0"`
}

func previewCmd() *cobra.Command {
	return boa.CmdT[PreviewParams]{
		Use:         "preview",
		Short:       "Play a track on the local speakers",
		Long:        "Resolves and transcodes a track exactly like the bot does and plays it locally. Useful to check ffmpeg, yt-dlp, proxy and cookie settings without Discord.",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *PreviewParams, c *cobra.Command, args []string) {
			if err := runPreview(params); err != nil {
				fail(err)
			}
		},
	}.ToCobra()
}

func runPreview(params *PreviewParams) error {
	cfg, log, closer, err := setup(true)
	if err != nil {
		return err
	}
	defer closer.Close()

	source, err := newSource(cfg, log)
	if err != nil {
		return err
	}
	track, err := source.Validate(params.URL)
	if err != nil {
		return err
	}

	volume := cfg.PlayerVolume
	if params.Volume > 0 && params.Volume <= 1 {
		volume = params.Volume
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = preview.Play(ctx, source, track, volume, log)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
