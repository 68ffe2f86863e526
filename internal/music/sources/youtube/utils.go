package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	youtubeURLPattern = regexp.MustCompile(`^https?://(?:www\.|music\.|m\.)?(youtube\.com|youtu\.be)/\S+$`)
	videoIDPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

func isYouTubeURL(input string) bool {
	return youtubeURLPattern.MatchString(input)
}

// CleanVideoURL strips everything but the video id from a YouTube link.
func CleanVideoURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	host := u.Hostname()

	switch host {
	case "youtu.be":
		vid := strings.Trim(u.Path, "/")
		if vid == "" {
			return raw
		}
		return fmt.Sprintf("https://youtu.be/%s", vid)

	case "www.youtube.com", "youtube.com", "m.youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			if vid := u.Query().Get("v"); vid != "" {
				return fmt.Sprintf("https://%s/watch?v=%s", host, vid)
			}
		}
		return raw

	default:
		return raw
	}
}

// videoID returns the id a YouTube link points at, or "" when it has none.
func videoID(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	var id string
	switch {
	case u.Hostname() == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case u.Path == "/watch":
		id = u.Query().Get("v")
	case strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/embed/"):
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 {
			id = parts[1]
		}
	}

	if !videoIDPattern.MatchString(id) {
		return ""
	}
	return id
}
