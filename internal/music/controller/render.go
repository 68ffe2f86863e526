package controller

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/keshon/guild-jukebox/internal/music/manager"
	"github.com/keshon/guild-jukebox/internal/music/queue"
)

const maxTitleWidth = 48

// RenderQueue draws the queue as a plain text table. The first row is the
// track that is loading or playing.
func RenderQueue(entries []queue.Entry) string {
	if len(entries) == 0 {
		return "The queue is empty."
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Track"})
	for _, e := range entries {
		label := truncate(e.Track.String(), maxTitleWidth)
		if e.Position == 1 {
			label = "▶ " + label
		}
		t.AppendRow(table.Row{e.Position, label})
	}
	return t.Render()
}

// DescribeEvent turns a manager event into a status line.
func DescribeEvent(ev manager.Event) string {
	switch ev.Kind {
	case manager.EventNowPlaying:
		return fmt.Sprintf("▶️ Now playing: %s", ev.Track)
	case manager.EventTrackFailed:
		return fmt.Sprintf("⚠️ Could not load %s, skipping it.", ev.Track)
	case manager.EventPlaybackFailed:
		return fmt.Sprintf("⚠️ Playback of %s failed, moving on.", ev.Track)
	case manager.EventQueueFinished:
		return "✅ Queue finished, leaving the voice channel."
	case manager.EventConnectionLost:
		return "🔌 Lost the voice connection, playback stopped."
	default:
		return string(ev.Kind)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
