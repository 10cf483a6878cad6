package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartEncounterRequest struct {
	State map[string]interface{} `json:"state"`
}

type PauseEncounterRequest struct {
	State map[string]interface{} `json:"state"`
}

type AppendMessageRequest struct {
	Content  string                 `json:"content" validate:"required"`
	Role     string                 `json:"role" validate:"omitempty,oneof=user assistant system"`
	FlowStep string                 `json:"flow_step"`
	Context  map[string]interface{} `json:"context"`
}

type ListEncountersRequest struct {
	Statuses []string
	Limit    int
	Offset   int
}

type EncounterResponse struct {
	Id             uuid.UUID              `json:"id"`
	UserId         string                 `json:"user_id"`
	Status         string                 `json:"status"`
	State          map[string]interface{} `json:"state"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	PausedAt       *time.Time             `json:"paused_at"`
	ResumedAt      *time.Time             `json:"resumed_at"`
	LastActivityAt *time.Time             `json:"last_activity_at"`
}
