package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Encounter struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId         string         `gorm:"type:varchar(255);not null;index:idx_encounters_user_status,priority:1"`
	Status         string         `gorm:"type:varchar(20);not null;index:idx_encounters_user_status,priority:2"`
	State          datatypes.JSON `gorm:"not null"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
	PausedAt       *time.Time
	ResumedAt      *time.Time
	LastActivityAt *time.Time `gorm:"index"`
}

func (Encounter) TableName() string {
	return "encounters"
}
