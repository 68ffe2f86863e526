package sources

import (
	"context"
	"io"
)

// StreamSource turns a track reference into a playable audio stream.
type StreamSource interface {
	// Validate checks raw user input and returns the canonical track for it.
	// Malformed or unsupported input yields an error wrapping ErrInvalidTrack.
	Validate(input string) (Track, error)

	// Open resolves track and returns s16le, 48kHz, stereo PCM. The stream
	// must stop producing data once ctx is cancelled.
	Open(ctx context.Context, track Track) (io.ReadCloser, error)

	// SourceName returns the string identifier ("youtube", ...).
	SourceName() string
}

// Opener is one way of producing PCM for a track. A source may try several
// openers in order until one succeeds.
type Opener interface {
	Name() string
	Open(ctx context.Context, track Track) (io.ReadCloser, error)
}
