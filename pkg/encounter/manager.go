package encounter

import (
	"context"
	"errors"
	"sync"

	"amanai-be/pkg/apperror"
)

// Manager tracks the current encounter for one user. Each mutating call takes
// a sequence number before it goes to the network; a response older than the
// newest one already applied is dropped.
type Manager struct {
	api API

	mu        sync.Mutex
	seq       uint64
	applied   uint64
	encounter *Encounter
	err       error
}

func NewManager(api API) *Manager {
	return &Manager{api: api}
}

// LoadActive adopts the most recent active or paused encounter, if any.
func (m *Manager) LoadActive(ctx context.Context) (*Encounter, error) {
	seq := m.next()
	enc, err := m.api.Active(ctx)
	if errors.Is(err, apperror.ErrNotFound) {
		m.apply(seq, nil, true, nil)
		return nil, nil
	}
	if err != nil {
		m.apply(seq, nil, false, err)
		return nil, err
	}
	m.apply(seq, enc, true, nil)
	return enc, nil
}

// Start creates an encounter. An already active one is returned unchanged.
func (m *Manager) Start(ctx context.Context, initial State) (*Encounter, error) {
	switch current := m.Encounter(); {
	case current != nil && current.Status == StatusPaused:
		return nil, apperror.Conflict("encounter is paused, resume it first")
	case current != nil && current.Status == StatusActive:
		return current, nil
	}

	seq := m.next()
	enc, err := m.api.Create(ctx, initial)
	if err != nil {
		m.apply(seq, nil, false, err)
		return nil, err
	}
	m.apply(seq, enc, true, nil)
	return enc, nil
}

// Pause persists snapshot as the encounter state.
func (m *Manager) Pause(ctx context.Context, snapshot State) (*Encounter, error) {
	return m.mutate(ctx, func(ctx context.Context, id string) (*Encounter, error) {
		return m.api.Pause(ctx, id, snapshot)
	})
}

func (m *Manager) Resume(ctx context.Context) (*Encounter, error) {
	return m.mutate(ctx, m.api.Resume)
}

func (m *Manager) Complete(ctx context.Context) (*Encounter, error) {
	return m.mutate(ctx, m.api.Complete)
}

func (m *Manager) Cancel(ctx context.Context) (*Encounter, error) {
	return m.mutate(ctx, m.api.Cancel)
}

// AppendMessage records a chat message, creating an encounter on the first
// message when none exists.
func (m *Manager) AppendMessage(ctx context.Context, msg MessageInput) (*Encounter, error) {
	current := m.Encounter()
	if current != nil && current.Status == StatusPaused {
		return nil, apperror.Conflict("encounter is paused, resume it first")
	}
	if current == nil || current.Status.Terminal() {
		if _, err := m.Start(ctx, nil); err != nil {
			return nil, err
		}
	}
	return m.mutate(ctx, func(ctx context.Context, id string) (*Encounter, error) {
		return m.api.AppendMessage(ctx, id, msg)
	})
}

// Status is the status of the tracked encounter, or StatusNone.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.encounter == nil {
		return StatusNone
	}
	return m.encounter.Status
}

func (m *Manager) Encounter() *Encounter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.encounter == nil {
		return nil
	}
	enc := *m.encounter
	return &enc
}

// Err is the last failed call. It is cleared by the next successful one.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Manager) mutate(ctx context.Context, call func(ctx context.Context, id string) (*Encounter, error)) (*Encounter, error) {
	current := m.Encounter()
	if current == nil {
		return nil, apperror.NotFound("no active encounter")
	}

	seq := m.next()
	enc, err := call(ctx, current.ID)
	if err != nil {
		m.apply(seq, nil, false, err)
		return nil, err
	}
	m.apply(seq, enc, true, nil)
	return enc, nil
}

func (m *Manager) next() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq
}

// apply records a response. replace controls whether enc (possibly nil)
// overwrites the tracked encounter.
func (m *Manager) apply(seq uint64, enc *Encounter, replace bool, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq < m.applied {
		return false
	}
	m.applied = seq
	m.err = err
	if replace {
		m.encounter = enc
	}
	return true
}
