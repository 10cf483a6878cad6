package entity

import (
	"time"

	"amanai-be/pkg/encounter"

	"github.com/google/uuid"
)

type Encounter struct {
	Id             uuid.UUID
	UserId         string
	Status         encounter.Status
	State          encounter.State
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PausedAt       *time.Time
	ResumedAt      *time.Time
	LastActivityAt *time.Time
}

// Touch stamps the activity time used for ordering.
func (e *Encounter) Touch(now time.Time) {
	e.LastActivityAt = &now
}
