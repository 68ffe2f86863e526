package main

import (
	"fmt"
	"io"
	"os"

	"github.com/keshon/guild-jukebox/internal/config"
	"github.com/keshon/guild-jukebox/internal/logging"
	"github.com/keshon/guild-jukebox/internal/music/sources/youtube"
	"github.com/rs/zerolog"
)

// setup loads .env and the environment and builds the logger. The returned
// closer flushes the log file.
func setup(local bool) (*config.Config, zerolog.Logger, io.Closer, error) {
	loadedEnv := config.LoadDotEnv()

	load := config.Load
	if local {
		load = config.LoadLocal
	}
	cfg, err := load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}

	log, closer, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	if !loadedEnv {
		log.Debug().Msg("no .env file found, using process environment")
	}
	return cfg, log, closer, nil
}

func newSource(cfg *config.Config, log zerolog.Logger) (*youtube.Source, error) {
	client, err := youtube.NewHTTPClient(cfg.YouTubeProxy, cfg.YouTubeCookie)
	if err != nil {
		return nil, fmt.Errorf("youtube http client: %w", err)
	}
	return youtube.New(youtube.Options{
		FFmpegPath:   cfg.FFmpegPath,
		YtdlpPath:    cfg.YtdlpPath,
		Parsers:      cfg.StreamParsers,
		HTTPClient:   client,
		Proxy:        cfg.YouTubeProxy,
		Cookie:       cfg.YouTubeCookie,
		ResolveRate:  cfg.ResolveRate,
		ResolveBurst: cfg.ResolveBurst,
		Logger:       log,
	})
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
