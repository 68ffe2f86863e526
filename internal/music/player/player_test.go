package player

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/keshon/guild-jukebox/internal/music/sources"
	"github.com/keshon/guild-jukebox/internal/music/stream"
	"github.com/keshon/guild-jukebox/internal/music/voice"
	"github.com/rs/zerolog"
)

// fakeSource serves canned PCM or errors per URL.
type fakeSource struct {
	mu     sync.Mutex
	open   func(ctx context.Context, track sources.Track) (io.ReadCloser, error)
	closed int
}

func (s *fakeSource) Validate(input string) (sources.Track, error) {
	return sources.Track{URL: input}, nil
}

func (s *fakeSource) Open(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
	return s.open(ctx, track)
}

func (s *fakeSource) SourceName() string { return "fake" }

type trackedCloser struct {
	io.Reader
	src *fakeSource
}

func (c *trackedCloser) Close() error {
	c.src.mu.Lock()
	c.src.closed++
	c.src.mu.Unlock()
	return nil
}

// endlessReader yields silence until ctx is done.
type endlessReader struct {
	ctx context.Context
}

func (r endlessReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	time.Sleep(time.Millisecond)
	clear(p)
	return len(p), nil
}

func pcmFrames(frames int, sample int16) []byte {
	buf := make([]byte, frames*stream.FrameBytes)
	for i := 0; i < len(buf); i += 2 {
		binary.LittleEndian.PutUint16(buf[i:], uint16(sample))
	}
	return buf
}

type fakeLink struct {
	mu       sync.Mutex
	frames   [][]byte
	speaking []bool
	sendErr  error
}

func (l *fakeLink) Speaking(b bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.speaking = append(l.speaking, b)
	return nil
}

func (l *fakeLink) SendOpus(ctx context.Context, frame []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sendErr != nil {
		return l.sendErr
	}
	l.frames = append(l.frames, frame)
	return nil
}

func (l *fakeLink) Teardown() error { return nil }

func (l *fakeLink) sent() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.frames...)
}

// firstSampleEncoder "encodes" a frame as its first sample.
type firstSampleEncoder struct{}

func (firstSampleEncoder) Encode(pcm []int16) ([]byte, error) {
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, uint16(pcm[0]))
	return out, nil
}

func newTestPlayer(src *fakeSource, link *fakeLink, timeout time.Duration) *Player {
	return New(src, link, Options{
		Volume:       0.5,
		FetchTimeout: timeout,
		NewEncoder:   func() (stream.Encoder, error) { return firstSampleEncoder{}, nil },
		Logger:       zerolog.Nop(),
	})
}

func waitDone(t *testing.T, pb *Playback) (error, bool) {
	t.Helper()
	select {
	case err, ok := <-pb.Done():
		return err, ok
	case <-time.After(2 * time.Second):
		t.Fatalf("playback of %s never resolved", pb.Track.URL)
		return nil, false
	}
}

func TestPlay_FinishesAndAttenuates(t *testing.T) {
	src := &fakeSource{}
	src.open = func(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
		rc := &trackedCloser{Reader: bytes.NewReader(pcmFrames(3, 1000)), src: src}
		return sources.WithTitle(rc, "Song A"), nil
	}
	link := &fakeLink{}
	p := newTestPlayer(src, link, time.Second)

	pb, err := p.Play(context.Background(), sources.Track{URL: "a"})
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if pb.Track.Title != "Song A" {
		t.Errorf("expected title from stream, got %q", pb.Track.Title)
	}

	err, ok := waitDone(t, pb)
	if !ok || err != nil {
		t.Fatalf("expected clean finish, got err=%v ok=%v", err, ok)
	}
	if _, ok := <-pb.Done(); ok {
		t.Errorf("Done must deliver exactly one value")
	}

	frames := link.sent()
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if got := int16(binary.LittleEndian.Uint16(frames[0])); got != 500 {
		t.Errorf("expected attenuated sample 500, got %d", got)
	}
	if p.State() != StateIdle {
		t.Errorf("expected Idle after finish, got %s", p.State())
	}
	if src.closed != 1 {
		t.Errorf("expected stream closed once, got %d", src.closed)
	}
	link.mu.Lock()
	defer link.mu.Unlock()
	if len(link.speaking) != 2 || !link.speaking[0] || link.speaking[1] {
		t.Errorf("expected speaking on then off, got %v", link.speaking)
	}
}

func TestPlay_PartialLastFrame(t *testing.T) {
	src := &fakeSource{}
	src.open = func(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
		data := append(pcmFrames(1, 10), pcmFrames(1, 10)[:100]...)
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	link := &fakeLink{}
	p := newTestPlayer(src, link, time.Second)

	pb, err := p.Play(context.Background(), sources.Track{URL: "a"})
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err, _ := waitDone(t, pb); err != nil {
		t.Fatalf("expected finish, got %v", err)
	}
	if n := len(link.sent()); n != 2 {
		t.Errorf("expected 2 frames including the padded tail, got %d", n)
	}
}

func TestPlay_FetchErrors(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name string
		open func(ctx context.Context, track sources.Track) (io.ReadCloser, error)
		want error
	}{
		{
			name: "source error",
			open: func(ctx context.Context, track sources.Track) (io.ReadCloser, error) { return nil, errBoom },
			want: errBoom,
		},
		{
			name: "empty stream",
			open: func(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(nil)), nil
			},
			want: ErrEmptyStream,
		},
		{
			name: "hung source",
			open: func(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
			want: ErrFetchTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := &fakeLink{}
			p := newTestPlayer(&fakeSource{open: tt.open}, link, 50*time.Millisecond)

			pb, err := p.Play(context.Background(), sources.Track{URL: "x"})
			if pb != nil {
				t.Fatalf("expected no playback")
			}
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FetchError, got %v", err)
			}
			if fe.Track.URL != "x" {
				t.Errorf("FetchError names wrong track %q", fe.Track.URL)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if len(link.sent()) != 0 {
				t.Errorf("sink must not be touched on fetch failure")
			}
			if p.State() != StateIdle {
				t.Errorf("expected Idle, got %s", p.State())
			}
		})
	}
}

func TestPlay_TimeoutClosesLateStream(t *testing.T) {
	src := &fakeSource{}
	release := make(chan struct{})
	src.open = func(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
		<-release
		return &trackedCloser{Reader: bytes.NewReader(pcmFrames(1, 1)), src: src}, nil
	}
	p := newTestPlayer(src, &fakeLink{}, 20*time.Millisecond)

	if _, err := p.Play(context.Background(), sources.Track{URL: "slow"}); !errors.Is(err, ErrFetchTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	close(release)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		src.mu.Lock()
		closed := src.closed
		src.mu.Unlock()
		if closed == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("stream opened after timeout was never closed")
}

func TestStop_SuppressesResult(t *testing.T) {
	src := &fakeSource{}
	src.open = func(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
		return io.NopCloser(endlessReader{ctx: ctx}), nil
	}
	link := &fakeLink{}
	p := newTestPlayer(src, link, time.Second)

	pb, err := p.Play(context.Background(), sources.Track{URL: "a"})
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if p.State() != StateEmitting {
		t.Errorf("expected Emitting, got %s", p.State())
	}

	p.Stop()
	p.Stop()

	if _, ok := waitDone(t, pb); ok {
		t.Errorf("stopped playback must close Done without a value")
	}
	if p.State() != StateIdle {
		t.Errorf("expected Idle after stop, got %s", p.State())
	}
}

func TestStop_CancelsFetch(t *testing.T) {
	src := &fakeSource{}
	started := make(chan struct{})
	src.open = func(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	p := newTestPlayer(src, &fakeLink{}, time.Minute)

	go func() {
		<-started
		p.Stop()
	}()

	pb, err := p.Play(context.Background(), sources.Track{URL: "a"})
	if pb != nil || !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got pb=%v err=%v", pb, err)
	}
}

func TestPlay_SupersedesPrevious(t *testing.T) {
	src := &fakeSource{}
	src.open = func(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
		return io.NopCloser(endlessReader{ctx: ctx}), nil
	}
	p := newTestPlayer(src, &fakeLink{}, time.Second)

	first, err := p.Play(context.Background(), sources.Track{URL: "a"})
	if err != nil {
		t.Fatalf("Play a failed: %v", err)
	}
	second, err := p.Play(context.Background(), sources.Track{URL: "b"})
	if err != nil {
		t.Fatalf("Play b failed: %v", err)
	}

	if _, ok := waitDone(t, first); ok {
		t.Errorf("superseded playback must not report")
	}
	p.Stop()
	waitDone(t, second)
}

func TestPlay_TransportLost(t *testing.T) {
	src := &fakeSource{}
	src.open = func(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(pcmFrames(2, 1))), nil
	}
	link := &fakeLink{sendErr: errors.New("udp closed")}
	p := newTestPlayer(src, link, time.Second)

	pb, err := p.Play(context.Background(), sources.Track{URL: "a"})
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	err, ok := waitDone(t, pb)
	if !ok || !errors.Is(err, voice.ErrTransportLost) {
		t.Errorf("expected ErrTransportLost, got %v (ok=%v)", err, ok)
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(&fakeSource{}, &fakeLink{}, Options{Volume: 3})
	if p.volume != DefaultVolume {
		t.Errorf("out of range volume should fall back to default, got %v", p.volume)
	}
	if p.fetchTimeout != DefaultFetchTimeout {
		t.Errorf("expected default fetch timeout, got %v", p.fetchTimeout)
	}
	p.Stop()
	if p.State() != StateIdle {
		t.Errorf("Stop on idle player must be a no-op")
	}
}

func TestPlay_CancelledContextLeavesCurrentPlayback(t *testing.T) {
	src := &fakeSource{}
	src.open = func(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
		return io.NopCloser(endlessReader{ctx: ctx}), nil
	}
	p := newTestPlayer(src, &fakeLink{}, time.Second)

	current, err := p.Play(context.Background(), sources.Track{URL: "a"})
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Play(ctx, sources.Track{URL: "late"}); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped for cancelled request, got %v", err)
	}
	if p.State() != StateEmitting {
		t.Errorf("current playback must keep emitting, got %s", p.State())
	}

	p.Stop()
	waitDone(t, current)
}
