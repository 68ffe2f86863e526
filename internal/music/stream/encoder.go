package stream

import (
	"encoding/binary"
	"fmt"
	"math"

	"layeh.com/gopus"
)

// Encoder turns one PCM frame into one voice packet.
type Encoder interface {
	Encode(pcm []int16) ([]byte, error)
}

// OpusEncoder encodes 20ms stereo frames for Discord voice.
type OpusEncoder struct {
	enc *gopus.Encoder
}

func NewOpusEncoder() (*OpusEncoder, error) {
	enc, err := gopus.NewEncoder(SampleRate, Channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("encoder error: %w", err)
	}
	return &OpusEncoder{enc: enc}, nil
}

func (e *OpusEncoder) Encode(pcm []int16) ([]byte, error) {
	opus, err := e.enc.Encode(pcm, FrameSize, FrameBytes)
	if err != nil {
		return nil, fmt.Errorf("encode error: %w", err)
	}
	return opus, nil
}

// DecodeFrame converts little-endian s16 bytes into samples scaled by volume.
// Short input leaves the tail of out as silence.
func DecodeFrame(buf []byte, out []int16, volume float64) {
	n := len(buf) / 2
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
		out[i] = scale(v, volume)
	}
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
}

func scale(v int16, volume float64) int16 {
	if volume == 1 {
		return v
	}
	s := math.Round(float64(v) * volume)
	switch {
	case s > math.MaxInt16:
		return math.MaxInt16
	case s < math.MinInt16:
		return math.MinInt16
	}
	return int16(s)
}
