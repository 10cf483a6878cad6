//go:build unix

package audio

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"amanai-be/pkg/recording"
)

// SignalFocusSource maps terminal job control to visibility: SIGTSTP hides
// the app, SIGCONT brings it back.
type SignalFocusSource struct {
	once    sync.Once
	signals chan os.Signal
	out     chan recording.Visibility
}

func NewSignalFocusSource() *SignalFocusSource {
	return &SignalFocusSource{
		signals: make(chan os.Signal, 2),
		out:     make(chan recording.Visibility, 2),
	}
}

func (s *SignalFocusSource) Visibility() <-chan recording.Visibility {
	s.once.Do(func() {
		signal.Notify(s.signals, syscall.SIGTSTP, syscall.SIGCONT)
		go s.loop()
	})
	return s.out
}

func (s *SignalFocusSource) loop() {
	for sig := range s.signals {
		switch sig {
		case syscall.SIGTSTP:
			s.emit(recording.Hidden)
			// Let the default handler actually stop the process.
			signal.Reset(syscall.SIGTSTP)
			_ = syscall.Kill(os.Getpid(), syscall.SIGTSTP)
		case syscall.SIGCONT:
			signal.Notify(s.signals, syscall.SIGTSTP)
			s.emit(recording.Visible)
		}
	}
	close(s.out)
}

func (s *SignalFocusSource) emit(v recording.Visibility) {
	select {
	case s.out <- v:
	default:
	}
}

// Close stops signal delivery.
func (s *SignalFocusSource) Close() {
	signal.Stop(s.signals)
}
