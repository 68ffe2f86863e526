package manager

import "github.com/keshon/guild-jukebox/internal/music/sources"

type State string

const (
	StateIdle    State = "Idle"
	StateJoining State = "Joining"
	StateLoading State = "Loading"
	StatePlaying State = "Playing"
)

type EventKind string

const (
	EventNowPlaying     EventKind = "now_playing"
	EventTrackFailed    EventKind = "track_failed"
	EventPlaybackFailed EventKind = "playback_failed"
	EventQueueFinished  EventKind = "queue_finished"
	EventConnectionLost EventKind = "connection_lost"
)

// Event is a playback notification. Track is empty for session-level events.
type Event struct {
	Kind      EventKind
	GuildID   string
	SessionID string
	Track     sources.Track
	Err       error
}
