package controller

import (
	"fmt"

	"github.com/keshon/guild-jukebox/internal/music/sources"
)

type Kind int

const (
	NowPlaying Kind = iota
	Queued
	JoinFailed
	InvalidTrack
	Stopped
	NothingPlaying
	Skipped
)

var kindNames = map[Kind]string{
	NowPlaying:     "NowPlaying",
	Queued:         "Queued",
	JoinFailed:     "JoinFailed",
	InvalidTrack:   "InvalidTrack",
	Stopped:        "Stopped",
	NothingPlaying: "NothingPlaying",
	Skipped:        "Skipped",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Emoji prefixes status messages.
func (k Kind) Emoji() string {
	switch k {
	case NowPlaying:
		return "▶️"
	case Queued:
		return "🎶"
	case Stopped:
		return "⏹"
	case Skipped:
		return "⏭"
	case NothingPlaying:
		return "💤"
	default:
		return "❌"
	}
}

// Result is the outcome of one controller call.
type Result struct {
	Kind     Kind
	Track    sources.Track
	Position int
	Err      error
}

// IsError reports whether the request was rejected.
func (r Result) IsError() bool {
	return r.Kind == JoinFailed || r.Kind == InvalidTrack
}

// Message is the status line shown to the user.
func (r Result) Message() string {
	switch r.Kind {
	case NowPlaying:
		return fmt.Sprintf("Now playing: %s", r.Track)
	case Queued:
		return fmt.Sprintf("Added to queue at position %d: %s", r.Position, r.Track)
	case JoinFailed:
		return "Could not join your voice channel."
	case InvalidTrack:
		return "That doesn't look like a YouTube video link."
	case Stopped:
		return "Stopped playback and cleared the queue."
	case NothingPlaying:
		return "Nothing is playing right now."
	case Skipped:
		return fmt.Sprintf("Skipped: %s", r.Track)
	default:
		return "Something went wrong."
	}
}

func (r Result) String() string {
	return r.Kind.Emoji() + " " + r.Message()
}
