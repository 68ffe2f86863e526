package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/keshon/guild-jukebox/internal/music/sources"
	"github.com/keshon/guild-jukebox/internal/music/stream"
)

type ytdlpInfo struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Formats []struct {
		URL string `json:"url"`
	} `json:"formats"`
}

// mediaURL picks the resolved link, falling back to the first format.
func (i ytdlpInfo) mediaURL() string {
	link := strings.TrimSpace(i.URL)
	if link == "" && len(i.Formats) > 0 {
		link = strings.TrimSpace(i.Formats[0].URL)
	}
	return link
}

// ytdlpOpener asks yt-dlp for the best audio link and hands it to ffmpeg.
type ytdlpOpener struct {
	ytdlp  string
	ffmpeg string
	proxy  string
	cookie string
}

func (o *ytdlpOpener) Name() string { return ParserYtdlp }

func (o *ytdlpOpener) args(url string) []string {
	args := []string{"-j", "--no-playlist", "-f", "bestaudio"}
	if o.proxy != "" {
		args = append(args, "--proxy", o.proxy)
	}
	if o.cookie != "" {
		args = append(args, "--add-header", "Cookie:"+o.cookie)
	}
	return append(args, url)
}

func (o *ytdlpOpener) Open(ctx context.Context, track sources.Track) (io.ReadCloser, error) {
	output, err := exec.CommandContext(ctx, o.ytdlp, o.args(track.URL)...).Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp get-url error: %w", err)
	}

	var info ytdlpInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}

	link := info.mediaURL()
	if link == "" {
		return nil, errors.New("empty URL returned from yt-dlp")
	}

	pcm, err := stream.TranscodeLink(ctx, o.ffmpeg, link)
	if err != nil {
		return nil, err
	}
	return sources.WithTitle(pcm, info.Title), nil
}
