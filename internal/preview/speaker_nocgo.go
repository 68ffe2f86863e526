//go:build !((linux && cgo) || windows || darwin)

package preview

import (
	"context"

	"github.com/keshon/guild-jukebox/internal/music/sources"
	"github.com/rs/zerolog"
)

func Play(ctx context.Context, source sources.StreamSource, track sources.Track, volume float64, log zerolog.Logger) error {
	return ErrUnsupported
}
