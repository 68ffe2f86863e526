// Package youtube plays YouTube videos by resolving them to an audio stream
// and transcoding it to PCM.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/keshon/guild-jukebox/internal/music/sources"
	kkdai "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	ParserKkdai     = "kkdai"
	ParserKkdaiPipe = "kkdai-pipe"
	ParserYtdlp     = "ytdlp"
)

type Options struct {
	FFmpegPath string
	YtdlpPath  string
	// Parsers lists the stream parsers to try, in order.
	Parsers    []string
	HTTPClient *http.Client
	Proxy      string
	Cookie     string
	// ResolveRate limits outbound resolves per second. Zero disables limiting.
	ResolveRate  float64
	ResolveBurst int
	Logger       zerolog.Logger
}

type Source struct {
	openers []sources.Opener
	limiter *rate.Limiter
	log     zerolog.Logger
}

func New(opts Options) (*Source, error) {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.YtdlpPath == "" {
		opts.YtdlpPath = "yt-dlp"
	}
	if len(opts.Parsers) == 0 {
		opts.Parsers = []string{ParserKkdai, ParserYtdlp}
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	s := &Source{
		limiter: rate.NewLimiter(rate.Inf, 0),
		log:     opts.Logger.With().Str("component", "youtube").Logger(),
	}
	if opts.ResolveRate > 0 {
		burst := opts.ResolveBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.ResolveRate), burst)
	}

	for _, name := range opts.Parsers {
		switch strings.TrimSpace(name) {
		case ParserKkdai:
			s.openers = append(s.openers, &kkdaiOpener{
				client: &kkdai.Client{HTTPClient: opts.HTTPClient},
				ffmpeg: opts.FFmpegPath,
			})
		case ParserKkdaiPipe:
			s.openers = append(s.openers, &kkdaiPipeOpener{
				client: &kkdai.Client{HTTPClient: opts.HTTPClient},
				ffmpeg: opts.FFmpegPath,
			})
		case ParserYtdlp:
			s.openers = append(s.openers, &ytdlpOpener{
				ytdlp:  opts.YtdlpPath,
				ffmpeg: opts.FFmpegPath,
				proxy:  opts.Proxy,
				cookie: opts.Cookie,
			})
		default:
			return nil, fmt.Errorf("unknown stream parser %q", name)
		}
	}
	return s, nil
}

func (s *Source) SourceName() string {
	return sources.SourceYouTube
}

// Validate accepts youtube.com and youtu.be video links.
func (s *Source) Validate(input string) (sources.Track, error) {
	input = strings.TrimSpace(input)
	if !isYouTubeURL(input) {
		return sources.Track{}, fmt.Errorf("%w: not a YouTube link: %q", sources.ErrInvalidTrack, input)
	}
	if videoID(input) == "" {
		return sources.Track{}, fmt.Errorf("%w: no video id in %q", sources.ErrInvalidTrack, input)
	}
	return sources.Track{
		URL:        CleanVideoURL(input),
		SourceName: sources.SourceYouTube,
	}, nil
}

// Open tries each configured parser until one yields a stream.
func (s *Source) Open(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	rc, parser, err := sources.OpenFirst(ctx, track, s.openers)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("url", track.URL).Str("parser", parser).Msg("stream opened")
	return rc, nil
}
