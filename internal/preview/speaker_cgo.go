//go:build (linux && cgo) || windows || darwin

package preview

import (
	"context"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/keshon/guild-jukebox/internal/music/sources"
	"github.com/rs/zerolog"
)

// Play opens track through source and blocks until it finished playing or
// ctx is done.
func Play(ctx context.Context, source sources.StreamSource, track sources.Track, volume float64, log zerolog.Logger) error {
	rc, err := source.Open(ctx, track)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	defer speaker.Close()

	if title := sources.TitleOf(rc); title != "" {
		track.Title = title
	}
	log.Info().Str("track", track.String()).Msg("previewing track")

	pcm := newPCMStreamer(rc, volume)
	done := make(chan struct{})
	speaker.Play(beep.Seq(pcm, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return pcm.Err()
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
