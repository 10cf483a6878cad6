package recording

import (
	"context"
	"io"

	"amanai-be/pkg/analysis"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate       int
	Channels         int
	EchoCancellation bool
	NoiseSuppression bool
	InputFormat      string
	InputDevice      string
}

// DefaultAudioConfig is the capture profile consultations use.
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate:       16000,
		Channels:         1,
		EchoCancellation: true,
		NoiseSuppression: true,
	}
}

// AudioSession is a live capture session. Read returns io.EOF once stopped.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// Suspender is implemented by sessions that can hold the device without producing data.
type Suspender interface {
	Suspend() error
	Resume() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// Recording is the finalized buffer handed to the analyzer.
type Recording struct {
	Data           []byte
	SampleRate     int
	Channels       int
	ElapsedSeconds int
}

// Analyzer consumes a finished recording.
type Analyzer interface {
	Analyze(ctx context.Context, rec Recording) (*analysis.Outcome, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, rec Recording) (*analysis.Outcome, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, rec Recording) (*analysis.Outcome, error) {
	return f(ctx, rec)
}

// DeviceLister enumerates audio input devices.
type DeviceLister interface {
	InputDevices(ctx context.Context) ([]string, error)
}

// DeviceNotifier is optionally implemented by listers that can signal device changes.
type DeviceNotifier interface {
	DeviceChanges() <-chan struct{}
}

// Visibility is the foreground state of the app hosting the recorder.
type Visibility int

const (
	Visible Visibility = iota
	Hidden
)

// FocusSource reports application visibility changes.
type FocusSource interface {
	Visibility() <-chan Visibility
}
