//go:build !unix

package audio

import "amanai-be/pkg/recording"

// SignalFocusSource never reports focus changes on platforms without job control.
type SignalFocusSource struct {
	out chan recording.Visibility
}

func NewSignalFocusSource() *SignalFocusSource {
	return &SignalFocusSource{out: make(chan recording.Visibility)}
}

func (s *SignalFocusSource) Visibility() <-chan recording.Visibility {
	return s.out
}

func (s *SignalFocusSource) Close() {}
