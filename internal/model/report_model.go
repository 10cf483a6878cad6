package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Report struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId      string         `gorm:"type:varchar(255);not null;index"`
	EncounterId *uuid.UUID     `gorm:"type:uuid;index"`
	Kind        string         `gorm:"type:varchar(20);not null"`
	Fields      datatypes.JSON `gorm:"not null"`
	Patient     datatypes.JSON
	ContentHash string    `gorm:"type:varchar(64);not null"`
	PdfPath     *string   `gorm:"type:varchar(500)"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Report) TableName() string {
	return "reports"
}
