// Package preview plays a track on the local speakers, through the same
// stream source the bot uses for voice channels.
package preview

import (
	"errors"
	"io"
	"math"

	"github.com/gopxl/beep/v2"
	"github.com/keshon/guild-jukebox/internal/music/stream"
)

const sampleRate = beep.SampleRate(stream.SampleRate)

var ErrUnsupported = errors.New("local audio output is not supported in this build")

// pcmStreamer adapts s16le stereo PCM to a beep.Streamer.
type pcmStreamer struct {
	r      io.Reader
	volume float64
	buf    []byte
	err    error
}

func newPCMStreamer(r io.Reader, volume float64) *pcmStreamer {
	return &pcmStreamer{r: r, volume: volume}
}

func (p *pcmStreamer) Stream(samples [][2]float64) (int, bool) {
	need := len(samples) * stream.Channels * 2
	if cap(p.buf) < need {
		p.buf = make([]byte, need)
	}
	buf := p.buf[:need]

	n, err := io.ReadFull(p.r, buf)
	frames := n / (stream.Channels * 2)
	for i := 0; i < frames; i++ {
		off := i * stream.Channels * 2
		samples[i][0] = p.sample(buf[off:])
		samples[i][1] = p.sample(buf[off+2:])
	}

	switch {
	case err == nil:
		return frames, true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return frames, frames > 0
	default:
		p.err = err
		return frames, frames > 0
	}
}

func (p *pcmStreamer) sample(b []byte) float64 {
	v := int16(uint16(b[0]) | uint16(b[1])<<8)
	return math.Max(-1, math.Min(1, float64(v)/32768*p.volume))
}

func (p *pcmStreamer) Err() error { return p.err }
