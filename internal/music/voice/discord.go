package voice

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/guild-jukebox/pkg/retry"
	"github.com/rs/zerolog"
)

// DiscordJoiner joins voice channels through a bot session.
type DiscordJoiner struct {
	join        func(guildID, channelID string) (*discordgo.VoiceConnection, error)
	retry       retry.Config
	sendTimeout time.Duration
	log         zerolog.Logger
}

func NewDiscordJoiner(session *discordgo.Session, sendTimeout time.Duration, log zerolog.Logger) *DiscordJoiner {
	j := &DiscordJoiner{
		join: func(guildID, channelID string) (*discordgo.VoiceConnection, error) {
			return session.ChannelVoiceJoin(guildID, channelID, false, true)
		},
		retry:       retry.Config{MaxAttempts: 3, InitialDelay: time.Second, Jitter: true},
		sendTimeout: sendTimeout,
		log:         log.With().Str("component", "voice").Logger(),
	}
	j.retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		j.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("voice join failed, retrying")
	}
	return j
}

// Join connects muted=false, deafened=true, retrying a few times with
// backoff. If ctx ends first, a connection that completes afterwards is
// disconnected.
func (j *DiscordJoiner) Join(ctx context.Context, guildID, channelID string) (Link, error) {
	var vc *discordgo.VoiceConnection
	err := retry.Do(ctx, j.retry, func(ctx context.Context) error {
		var err error
		vc, err = j.joinOnce(ctx, guildID, channelID)
		if ctx.Err() != nil {
			return retry.Fatal(ctx.Err())
		}
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	j.log.Info().Str("guild", guildID).Str("channel", channelID).Msg("joined voice channel")
	return newDiscordLink(vc, j.sendTimeout), nil
}

func (j *DiscordJoiner) joinOnce(ctx context.Context, guildID, channelID string) (*discordgo.VoiceConnection, error) {
	type result struct {
		vc  *discordgo.VoiceConnection
		err error
	}

	ch := make(chan result, 1)
	go func() {
		vc, err := j.join(guildID, channelID)
		ch <- result{vc: vc, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			if r.vc != nil {
				_ = r.vc.Disconnect()
			}
			return nil, r.err
		}
		return r.vc, nil
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.vc != nil {
				_ = r.vc.Disconnect()
			}
		}()
		return nil, ctx.Err()
	}
}

type discordLink struct {
	vc          *discordgo.VoiceConnection
	sendTimeout time.Duration
	once        sync.Once
}

func newDiscordLink(vc *discordgo.VoiceConnection, sendTimeout time.Duration) *discordLink {
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	return &discordLink{vc: vc, sendTimeout: sendTimeout}
}

func (l *discordLink) ready() bool {
	l.vc.RLock()
	defer l.vc.RUnlock()
	return l.vc.Ready && l.vc.OpusSend != nil
}

func (l *discordLink) Speaking(speaking bool) error {
	return l.vc.Speaking(speaking)
}

func (l *discordLink) SendOpus(ctx context.Context, frame []byte) error {
	if !l.ready() {
		return fmt.Errorf("%w: connection not ready", ErrTransportLost)
	}

	timer := time.NewTimer(l.sendTimeout)
	defer timer.Stop()

	select {
	case l.vc.OpusSend <- frame:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: send timed out after %s", ErrTransportLost, l.sendTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *discordLink) Teardown() error {
	var err error
	l.once.Do(func() {
		err = l.vc.Disconnect()
	})
	return err
}
