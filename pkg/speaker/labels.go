package speaker

import (
	"fmt"
	"sync"
)

// Labels keeps inferred roles and user overrides apart, so re-parsing a
// transcript refreshes inference without losing manual reassignments.
type Labels struct {
	mu        sync.RWMutex
	speakers  []string
	inferred  map[string]Role
	overrides map[string]Role
}

func NewLabels() *Labels {
	return &Labels{
		inferred:  make(map[string]Role),
		overrides: make(map[string]Role),
	}
}

// Reparse recomputes inferred roles for lines. Overrides are kept.
func (l *Labels) Reparse(lines []Line) {
	inferred := Infer(lines)
	speakers := Speakers(lines)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inferred = inferred
	l.speakers = speakers
}

// Override pins role for speakerID until cleared.
func (l *Labels) Override(speakerID string, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.overrides[speakerID] = role
	return nil
}

func (l *Labels) ClearOverride(speakerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.overrides, speakerID)
}

// Reset forgets speakers, inferred roles and overrides.
func (l *Labels) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.speakers = nil
	l.inferred = make(map[string]Role)
	l.overrides = make(map[string]Role)
}

// Restore replaces the override map, e.g. from a persisted snapshot.
func (l *Labels) Restore(overrides map[string]Role) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.overrides = make(map[string]Role, len(overrides))
	for id, role := range overrides {
		if role.Valid() {
			l.overrides[id] = role
		}
	}
}

func (l *Labels) Role(speakerID string) Role {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if role, ok := l.overrides[speakerID]; ok {
		return role
	}
	if role, ok := l.inferred[speakerID]; ok {
		return role
	}
	return RoleOther
}

// Resolved merges overrides over inferred roles.
func (l *Labels) Resolved() map[string]Role {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]Role, len(l.inferred)+len(l.overrides))
	for id, role := range l.inferred {
		out[id] = role
	}
	for id, role := range l.overrides {
		out[id] = role
	}
	return out
}

func (l *Labels) Overrides() map[string]Role {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]Role, len(l.overrides))
	for id, role := range l.overrides {
		out[id] = role
	}
	return out
}

func (l *Labels) Speakers() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.speakers...)
}

// Label returns lines with their resolved role attached.
func (l *Labels) Label(lines []Line) []LabeledLine {
	out := make([]LabeledLine, len(lines))
	for i, line := range lines {
		out[i] = LabeledLine{Line: line, Role: l.Role(line.SpeakerID)}
	}
	return out
}

type LabeledLine struct {
	Line
	Role Role `json:"role"`
}
