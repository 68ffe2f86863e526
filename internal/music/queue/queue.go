// Package queue holds the FIFO list of pending tracks for one guild.
//
// A Queue is not safe for concurrent use; the owning session serializes access.
package queue

import (
	"errors"

	"github.com/keshon/guild-jukebox/internal/music/sources"
	"github.com/samber/lo"
)

var ErrEmptyTrack = errors.New("empty track reference")

// Entry is one listed queue position. Positions are 1-based.
type Entry struct {
	Position int
	Track    sources.Track
}

// Queue is the ordered list of pending tracks. The head, if present, is the
// track that is about to play or currently playing.
type Queue struct {
	tracks []sources.Track
}

func New() *Queue {
	return &Queue{tracks: make([]sources.Track, 0)}
}

// Enqueue appends track and returns its 1-based position.
func (q *Queue) Enqueue(track sources.Track) (int, error) {
	if track.IsZero() {
		return 0, ErrEmptyTrack
	}
	q.tracks = append(q.tracks, track)
	return len(q.tracks), nil
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (sources.Track, bool) {
	if len(q.tracks) == 0 {
		return sources.Track{}, false
	}
	return q.tracks[0], true
}

// Advance drops the head. No-op on an empty queue.
func (q *Queue) Advance() {
	if len(q.tracks) == 0 {
		return
	}
	q.tracks[0] = sources.Track{}
	q.tracks = q.tracks[1:]
}

// SetHeadTitle records the title learned while loading the head track.
func (q *Queue) SetHeadTitle(url, title string) {
	if len(q.tracks) == 0 || title == "" || q.tracks[0].URL != url {
		return
	}
	q.tracks[0].Title = title
}

// List returns a snapshot of the queue in play order.
func (q *Queue) List() []Entry {
	return lo.Map(q.tracks, func(t sources.Track, i int) Entry {
		return Entry{Position: i + 1, Track: t}
	})
}

func (q *Queue) Len() int {
	return len(q.tracks)
}

func (q *Queue) Clear() {
	q.tracks = nil
}
