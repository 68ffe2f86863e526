package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/keshon/guild-jukebox/internal/music/sources"
	"github.com/keshon/guild-jukebox/internal/music/stream"
	"github.com/keshon/guild-jukebox/internal/music/voice"
	"github.com/rs/zerolog"
)

type State string

const (
	StateIdle     State = "Idle"
	StateLoading  State = "Loading"
	StateEmitting State = "Emitting"
)

const (
	DefaultVolume       = 0.5
	DefaultFetchTimeout = 30 * time.Second
)

var (
	ErrFetchTimeout = errors.New("stream fetch timed out")
	ErrEmptyStream  = errors.New("stream ended before any audio")
	ErrStopped      = errors.New("playback stopped")
)

// FetchError means no stream could be produced for Track. The sink was not touched.
type FetchError struct {
	Track sources.Track
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for %s: %v", e.Track, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Playback is a started track. Done delivers its terminal result exactly once:
// nil when the stream drained, an error when emission failed. If the playback
// is stopped, Done is closed without a value.
type Playback struct {
	Track sources.Track
	done  chan error
}

func (pb *Playback) Done() <-chan error { return pb.done }

type Options struct {
	Volume       float64
	FetchTimeout time.Duration
	// NewEncoder is called once per playback. Defaults to an Opus encoder.
	NewEncoder func() (stream.Encoder, error)
	Logger     zerolog.Logger
}

// Player drives the audio sink of one voice link.
type Player struct {
	source       sources.StreamSource
	link         voice.Link
	newEncoder   func() (stream.Encoder, error)
	volume       float64
	fetchTimeout time.Duration
	log          zerolog.Logger

	mu     sync.Mutex
	gen    uint64
	state  State
	cancel context.CancelFunc
}

func New(source sources.StreamSource, link voice.Link, opts Options) *Player {
	if opts.Volume <= 0 || opts.Volume > 1 {
		opts.Volume = DefaultVolume
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.NewEncoder == nil {
		opts.NewEncoder = func() (stream.Encoder, error) { return stream.NewOpusEncoder() }
	}
	return &Player{
		source:       source,
		link:         link,
		newEncoder:   opts.NewEncoder,
		volume:       opts.Volume,
		fetchTimeout: opts.FetchTimeout,
		log:          opts.Logger.With().Str("component", "player").Logger(),
		state:        StateIdle,
	}
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Play fetches track and starts emitting it, superseding any earlier playback.
// It blocks for the fetch only; emission continues in the background until the
// stream ends, fails, Stop is called or ctx is done. A call whose ctx is
// already done returns ErrStopped and leaves the current playback alone.
func (p *Player) Play(ctx context.Context, track sources.Track) (*Playback, error) {
	p.mu.Lock()
	if err := ctx.Err(); err != nil {
		p.mu.Unlock()
		return nil, ErrStopped
	}
	p.stopLocked()
	p.gen++
	gen := p.gen
	pctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = StateLoading
	p.mu.Unlock()

	p.log.Debug().Str("url", track.URL).Msg("loading track")

	rc, first, err := p.fetch(pctx, track)
	if err != nil {
		cancel()
		p.mu.Lock()
		stale := p.gen != gen
		if !stale {
			p.state = StateIdle
			p.cancel = nil
		}
		p.mu.Unlock()
		if stale {
			return nil, ErrStopped
		}
		p.log.Warn().Err(err).Str("url", track.URL).Msg("fetch failed")
		return nil, &FetchError{Track: track, Err: err}
	}

	if title := sources.TitleOf(rc); title != "" && track.Title == "" {
		track.Title = title
	}
	pb := &Playback{Track: track, done: make(chan error, 1)}

	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		cancel()
		rc.Close()
		return nil, ErrStopped
	}
	p.state = StateEmitting
	p.mu.Unlock()

	p.log.Info().Str("track", track.String()).Msg("starting track")
	go p.emit(pctx, cancel, gen, pb, rc, first)
	return pb, nil
}

// Stop halts emission or cancels an in-flight fetch. The interrupted
// playback never reports a result. No-op when idle.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopLocked() {
		p.gen++
	}
}

func (p *Player) stopLocked() bool {
	if p.cancel == nil {
		return false
	}
	p.cancel()
	p.cancel = nil
	p.state = StateIdle
	return true
}

type opened struct {
	rc    io.ReadCloser
	first []byte
	err   error
}

// fetch opens the stream and primes its first frame within the fetch timeout.
func (p *Player) fetch(ctx context.Context, track sources.Track) (io.ReadCloser, []byte, error) {
	ch := make(chan opened, 1)
	go func() {
		rc, err := p.source.Open(ctx, track)
		if err != nil {
			ch <- opened{err: err}
			return
		}
		buf := make([]byte, stream.FrameBytes)
		n, err := io.ReadFull(rc, buf)
		if n == 0 {
			rc.Close()
			if err == nil || errors.Is(err, io.EOF) {
				err = ErrEmptyStream
			}
			ch <- opened{err: err}
			return
		}
		ch <- opened{rc: rc, first: buf[:n]}
	}()

	timer := time.NewTimer(p.fetchTimeout)
	defer timer.Stop()

	select {
	case o := <-ch:
		return o.rc, o.first, o.err
	case <-timer.C:
		go discard(ch)
		return nil, nil, ErrFetchTimeout
	case <-ctx.Done():
		go discard(ch)
		return nil, nil, ctx.Err()
	}
}

func discard(ch <-chan opened) {
	if o := <-ch; o.rc != nil {
		o.rc.Close()
	}
}

func (p *Player) emit(ctx context.Context, cancel context.CancelFunc, gen uint64, pb *Playback, rc io.ReadCloser, first []byte) {
	err := p.pump(ctx, rc, first)
	rc.Close()
	cancel()

	p.mu.Lock()
	current := p.gen == gen
	if current {
		p.state = StateIdle
		p.cancel = nil
		pb.done <- err
	}
	p.mu.Unlock()
	close(pb.done)

	switch {
	case !current:
		p.log.Debug().Str("track", pb.Track.String()).Msg("playback stopped")
	case err != nil:
		p.log.Warn().Err(err).Str("track", pb.Track.String()).Msg("playback failed")
	default:
		p.log.Info().Str("track", pb.Track.String()).Msg("playback finished")
	}
}

func (p *Player) pump(ctx context.Context, rc io.Reader, first []byte) error {
	enc, err := p.newEncoder()
	if err != nil {
		return err
	}

	if err := p.link.Speaking(true); err != nil {
		p.log.Debug().Err(err).Msg("speaking on failed")
	}
	defer func() {
		if err := p.link.Speaking(false); err != nil {
			p.log.Debug().Err(err).Msg("speaking off failed")
		}
	}()

	pcm := make([]int16, stream.FrameSize*stream.Channels)
	buf := make([]byte, stream.FrameBytes)
	frame := first

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		stream.DecodeFrame(frame, pcm, p.volume)
		opus, err := enc.Encode(pcm)
		if err != nil {
			return err
		}
		if err := p.link.SendOpus(ctx, opus); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, voice.ErrTransportLost) {
				err = fmt.Errorf("%w: %v", voice.ErrTransportLost, err)
			}
			return err
		}

		n, err := io.ReadFull(rc, buf)
		switch {
		case n == 0 && errors.Is(err, io.EOF):
			return nil
		case err != nil && !errors.Is(err, io.ErrUnexpectedEOF):
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read error: %w", err)
		}
		frame = buf[:n]
	}
}
