package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/keshon/guild-jukebox/internal/music/sources"
	"github.com/keshon/guild-jukebox/internal/music/stream"
	kkdai "github.com/kkdai/youtube/v2"
)

var errNoAudioFormats = errors.New("no audio formats found for video")

// resolveAudio fetches video metadata and picks the best audio format.
func resolveAudio(ctx context.Context, client *kkdai.Client, url string) (*kkdai.Video, *kkdai.Format, error) {
	video, err := client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("youtube client error: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, nil, errNoAudioFormats
	}
	formats.Sort()
	return video, &formats[0], nil
}

// kkdaiOpener resolves a direct media URL with the kkdai client and hands it
// to ffmpeg.
type kkdaiOpener struct {
	client *kkdai.Client
	ffmpeg string
}

func (o *kkdaiOpener) Name() string { return ParserKkdai }

func (o *kkdaiOpener) Open(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
	video, format, err := resolveAudio(ctx, o.client, track.URL)
	if err != nil {
		return nil, err
	}

	link, err := o.client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("get stream URL error: %w", err)
	}

	pcm, err := stream.TranscodeLink(ctx, o.ffmpeg, link)
	if err != nil {
		return nil, err
	}
	return sources.WithTitle(pcm, video.Title), nil
}

// kkdaiPipeOpener downloads the audio through the kkdai client itself and
// feeds it to ffmpeg on stdin. Slower to start than kkdaiOpener, but the
// media request carries the client's proxy and cookies.
type kkdaiPipeOpener struct {
	client *kkdai.Client
	ffmpeg string
}

func (o *kkdaiPipeOpener) Name() string { return ParserKkdaiPipe }

func (o *kkdaiPipeOpener) Open(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
	video, format, err := resolveAudio(ctx, o.client, track.URL)
	if err != nil {
		return nil, err
	}

	body, _, err := o.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("get stream error: %w", err)
	}

	pcm, err := stream.TranscodePipe(ctx, o.ffmpeg, body)
	if err != nil {
		return nil, err
	}
	return sources.WithTitle(pcm, video.Title), nil
}
