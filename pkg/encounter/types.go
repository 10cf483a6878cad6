// Package encounter is the client side of the server-authoritative encounter
// lifecycle: a typed HTTP client and a Manager that keeps the local view
// consistent when responses arrive out of order.
package encounter

import (
	"time"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Well-known state keys.
const (
	StateFlowStep               = "flow_step"
	StateMessages               = "messages"
	StateContext                = "context"
	StateElapsedSeconds         = "elapsed_seconds"
	StateSpeakerLabels          = "speaker_labels"
	StateConversationHistoryRef = "conversation_history_ref"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// State is the opaque snapshot a client persists on pause.
type State map[string]any

// MergeState returns base with every non-null key of update written over it.
// Lists are replaced, not appended.
func MergeState(base, update State) State {
	out := make(State, len(base)+len(update))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range update {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

// ElapsedSeconds reads the elapsed timer, tolerating JSON-decoded numbers.
func (s State) ElapsedSeconds() int {
	switch v := s[StateElapsedSeconds].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// SpeakerLabels reads speaker overrides as plain strings.
func (s State) SpeakerLabels() map[string]string {
	out := map[string]string{}
	switch v := s[StateSpeakerLabels].(type) {
	case map[string]string:
		for id, role := range v {
			out[id] = role
		}
	case map[string]any:
		for id, role := range v {
			if str, ok := role.(string); ok {
				out[id] = str
			}
		}
	}
	return out
}

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Encounter struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Status         Status     `json:"status"`
	State          State      `json:"state"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	PausedAt       *time.Time `json:"paused_at,omitempty"`
	ResumedAt      *time.Time `json:"resumed_at,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// MessageInput is the body of an append-message call.
type MessageInput struct {
	Content  string         `json:"content"`
	Role     Role           `json:"role,omitempty"`
	FlowStep string         `json:"flow_step,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}
