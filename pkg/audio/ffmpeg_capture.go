// Package audio holds the host adapters behind the recording ports: ffmpeg
// microphone capture, PulseAudio device listing, terminal focus signals and
// the WAV-wrapping analyzer.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"amanai-be/pkg/apperror"
	"amanai-be/pkg/recording"
)

const (
	startupGrace = 250 * time.Millisecond
	stopGrace    = 1200 * time.Millisecond
)

// FFMPEGCapture streams microphone PCM audio using ffmpeg.
type FFMPEGCapture struct {
	command          string
	echoCancelSource string
}

type CaptureOption func(*FFMPEGCapture)

// WithEchoCancelSource selects the PulseAudio source used when echo
// cancellation is requested and no explicit device is configured.
func WithEchoCancelSource(source string) CaptureOption {
	return func(c *FFMPEGCapture) {
		c.echoCancelSource = source
	}
}

func NewFFMPEGCapture(command string, opts ...CaptureOption) *FFMPEGCapture {
	if command == "" {
		command = "ffmpeg"
	}
	c := &FFMPEGCapture{command: command}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *FFMPEGCapture) Start(ctx context.Context, cfg recording.AudioConfig) (recording.AudioSession, error) {
	cmd := exec.CommandContext(ctx, c.command, c.args(cfg)...)
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		return nil, startError(err, stderr.String())
	case <-time.After(startupGrace):
	}

	return &ffmpegSession{
		stdout:  stdout,
		stderr:  stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

func (c *FFMPEGCapture) args(cfg recording.AudioConfig) []string {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
		if cfg.EchoCancellation && cfg.InputFormat == "pulse" && c.echoCancelSource != "" {
			cfg.InputDevice = c.echoCancelSource
		}
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
	}
	if cfg.NoiseSuppression {
		args = append(args, "-af", "afftdn")
	}
	return append(args,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	)
}

func startError(err error, stderr string) error {
	detail := trimSpace(stderr)
	if isPermissionMessage(detail) {
		return apperror.PermissionDenied("microphone access denied", fmt.Errorf("ffmpeg: %s", detail))
	}
	if err != nil {
		return fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, detail)
	}
	return errors.New("ffmpeg exited before capture started")
}

func isPermissionMessage(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "permission denied") || strings.Contains(lower, "access denied")
}

type ffmpegSession struct {
	stdout io.ReadCloser
	stderr *lockedBuffer

	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

func (s *ffmpegSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *ffmpegSession) Close() error {
	return s.Stop()
}

func (s *ffmpegSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(stopGrace):
			if s.process != nil {
				_ = s.process.Kill()
			}
			if err, ok := <-s.waitErr; ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) && s.stopErr == nil {
			s.stopErr = closeErr
		}

		if s.stopErr != nil {
			if detail := trimSpace(s.stderr.String()); detail != "" {
				s.stopErr = fmt.Errorf("%w: %s", s.stopErr, detail)
			}
		}
	})

	return s.stopErr
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimSpace(input string) string {
	if input == "" {
		return input
	}
	return strings.TrimSpace(input)
}

// lockedBuffer lets the exec copier goroutine and Stop share stderr.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
