// /internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken      string `env:"DISCORD_TOKEN"`
	DiscordAppID      string `env:"DISCORD_APP_ID"`
	DiscordGuildID    string `env:"DISCORD_GUILD_ID"`
	InitSlashCommands bool   `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
	StoragePath       string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	PlayerVolume     float64       `env:"PLAYER_VOLUME" envDefault:"0.5"`
	FetchTimeout     time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	VoiceSendTimeout time.Duration `env:"VOICE_SEND_TIMEOUT" envDefault:"5s"`

	FFmpegPath    string   `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	YtdlpPath     string   `env:"YTDLP_PATH" envDefault:"yt-dlp"`
	StreamParsers []string `env:"STREAM_PARSERS" envDefault:"kkdai,ytdlp" envSeparator:","`
	YouTubeProxy  string   `env:"YOUTUBE_PROXY"`
	YouTubeCookie string   `env:"YOUTUBE_COOKIE"`
	ResolveRate   float64  `env:"RESOLVE_RATE" envDefault:"2"`
	ResolveBurst  int      `env:"RESOLVE_BURST" envDefault:"2"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile   string `env:"LOG_FILE"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// LoadDotEnv reads .env into the process environment. A missing file is not
// an error; it reports whether one was loaded.
func LoadDotEnv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

// Load parses the process environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return finish(&cfg, true)
}

// LoadLocal is Load for commands that never connect to Discord, such as
// preview; DISCORD_TOKEN may be unset.
func LoadLocal() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return finish(&cfg, false)
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return finish(&cfg, true)
}

func finish(cfg *Config, requireToken bool) (*Config, error) {
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	for i, p := range cfg.StreamParsers {
		cfg.StreamParsers[i] = strings.TrimSpace(p)
	}
	if err := cfg.validate(requireToken); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the bot cannot run with.
func (c *Config) Validate() error {
	return c.validate(true)
}

func (c *Config) validate(requireToken bool) error {
	var errs []error
	if requireToken && strings.TrimSpace(c.DiscordToken) == "" {
		errs = append(errs, errors.New("DISCORD_TOKEN is not set"))
	}
	if c.PlayerVolume <= 0 || c.PlayerVolume > 1 {
		errs = append(errs, fmt.Errorf("PLAYER_VOLUME must be in (0, 1], got %v", c.PlayerVolume))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout))
	}
	if c.VoiceSendTimeout <= 0 {
		errs = append(errs, fmt.Errorf("VOICE_SEND_TIMEOUT must be positive, got %s", c.VoiceSendTimeout))
	}
	if len(c.StreamParsers) == 0 {
		errs = append(errs, errors.New("STREAM_PARSERS must list at least one parser"))
	}
	if c.ResolveRate < 0 || c.ResolveBurst < 0 {
		errs = append(errs, errors.New("RESOLVE_RATE and RESOLVE_BURST must not be negative"))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
