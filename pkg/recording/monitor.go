package recording

import (
	"context"
	"sync"
	"time"
)

const ReasonAudioFocus = "audio_focus"

// Callbacks are advisory; the monitor never changes recorder state itself.
type Callbacks struct {
	OnMicrophoneLost     func()
	OnMicrophoneRestored func()
	OnInterruption       func(reason string)
}

type MonitorConfig struct {
	PollInterval time.Duration
	// Gate suppresses callbacks when it returns false, e.g. while not recording.
	Gate func() bool
}

// Monitor watches for microphone loss and loss of application focus.
type Monitor struct {
	lister    DeviceLister
	focus     FocusSource
	callbacks Callbacks
	cfg       MonitorConfig

	mu        sync.Mutex
	cancel    context.CancelFunc
	available bool
}

func NewMonitor(lister DeviceLister, focus FocusSource, callbacks Callbacks, cfg MonitorConfig) *Monitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Monitor{
		lister:    lister,
		focus:     focus,
		callbacks: callbacks,
		cfg:       cfg,
		available: true,
	}
}

// Start begins watching. Calling Start on a running monitor does nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.available = true

	if m.lister != nil {
		go m.watchDevices(ctx)
	}
	if m.focus != nil {
		go m.watchFocus(ctx)
	}
}

// Stop cancels the watchers without waiting for them, so it is safe to call
// from inside a callback.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Monitor) watchDevices(ctx context.Context) {
	var changes <-chan struct{}
	if n, ok := m.lister.(DeviceNotifier); ok {
		changes = n.DeviceChanges()
	}

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	devices, err := m.lister.InputDevices(ctx)
	if err != nil {
		return
	}
	available := len(devices) > 0

	m.mu.Lock()
	changed := available != m.available
	m.available = available
	m.mu.Unlock()

	if !changed || ctx.Err() != nil || !m.gateOpen() {
		return
	}
	if available {
		if m.callbacks.OnMicrophoneRestored != nil {
			m.callbacks.OnMicrophoneRestored()
		}
		return
	}
	if m.callbacks.OnMicrophoneLost != nil {
		m.callbacks.OnMicrophoneLost()
	}
}

func (m *Monitor) watchFocus(ctx context.Context) {
	visibility := m.focus.Visibility()
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-visibility:
			if !ok {
				return
			}
			if v != Hidden || ctx.Err() != nil || !m.gateOpen() {
				continue
			}
			if m.callbacks.OnInterruption != nil {
				m.callbacks.OnInterruption(ReasonAudioFocus)
			}
		}
	}
}

func (m *Monitor) gateOpen() bool {
	return m.cfg.Gate == nil || m.cfg.Gate()
}
