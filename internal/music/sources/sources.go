package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	SourceYouTube = "youtube"
)

var (
	ErrInvalidTrack = errors.New("invalid track reference")
	ErrNoOpeners    = errors.New("no stream openers configured")
)

// Track is an immutable reference to one playable item. The URL is its identity.
type Track struct {
	URL        string
	Title      string
	SourceName string
}

// String returns a human-readable label: the title when known, the URL otherwise.
func (t Track) String() string {
	if t.Title != "" {
		return t.Title
	}
	return t.URL
}

// IsZero reports whether t carries no reference.
func (t Track) IsZero() bool {
	return strings.TrimSpace(t.URL) == ""
}

// OpenFirst tries each opener in order and returns the first stream that opens.
// The combined error lists every failed opener.
func OpenFirst(ctx context.Context, track Track, openers []Opener) (io.ReadCloser, string, error) {
	if len(openers) == 0 {
		return nil, "", ErrNoOpeners
	}

	var errs []error
	for _, o := range openers {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		rc, err := o.Open(ctx, track)
		if err == nil {
			return rc, o.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", o.Name(), err))
	}

	return nil, "", fmt.Errorf("all parsers failed for %s: %w", track.URL, errors.Join(errs...))
}

// Titled is implemented by streams that learned the track title while opening.
type Titled interface {
	Title() string
}

type titledStream struct {
	io.ReadCloser
	title string
}

func (s *titledStream) Title() string { return s.title }

// WithTitle attaches title to rc. An empty title returns rc unchanged.
func WithTitle(rc io.ReadCloser, title string) io.ReadCloser {
	if title == "" {
		return rc
	}
	return &titledStream{ReadCloser: rc, title: title}
}

// TitleOf returns the title carried by rc, if any.
func TitleOf(rc io.ReadCloser) string {
	if t, ok := rc.(Titled); ok {
		return t.Title()
	}
	return ""
}
