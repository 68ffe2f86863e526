// /internal/music/stream/stream.go
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
)

const (
	Channels   = 2
	SampleRate = 48000
	FrameSize  = 960 // 20ms at 48kHz

	// FrameBytes is one s16le stereo frame.
	FrameBytes = FrameSize * Channels * 2
)

// ProcessStream is the stdout of a running transcoder. Closing it kills the
// process and releases whatever fed its stdin.
type ProcessStream struct {
	io.ReadCloser
	cmd   *exec.Cmd
	input io.Closer
	once  sync.Once
}

// Close stops the transcoder and waits for it to exit.
func (s *ProcessStream) Close() error {
	s.once.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		if s.input != nil {
			_ = s.input.Close()
		}
		_ = s.cmd.Wait()
	})
	return nil
}

// ffmpegArgs builds the argument list that turns input into raw PCM on stdout.
// An empty input reads from stdin.
func ffmpegArgs(input string) []string {
	var args []string
	if input == "" {
		args = append(args, "-i", "pipe:0")
	} else {
		args = append(args,
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_delay_max", "5",
			"-i", input,
		)
	}
	return append(args,
		"-vn",
		"-f", "s16le",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-loglevel", "warning",
		"pipe:1",
	)
}

// TranscodeLink starts ffmpeg reading from a remote media URL.
func TranscodeLink(ctx context.Context, ffmpegPath, link string) (*ProcessStream, error) {
	if link == "" {
		return nil, errors.New("empty media link")
	}
	return start(exec.CommandContext(ctx, ffmpegPath, ffmpegArgs(link)...), nil)
}

// TranscodePipe starts ffmpeg reading from src. src is closed with the stream.
func TranscodePipe(ctx context.Context, ffmpegPath string, src io.ReadCloser) (*ProcessStream, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, ffmpegArgs("")...)
	cmd.Stdin = src
	s, err := start(cmd, src)
	if err != nil {
		src.Close()
		return nil, err
	}
	return s, nil
}

func start(cmd *exec.Cmd, input io.Closer) (*ProcessStream, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("command start error: %w", err)
	}
	return &ProcessStream{ReadCloser: stdout, cmd: cmd, input: input}, nil
}
