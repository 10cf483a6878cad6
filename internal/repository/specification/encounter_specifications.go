package specification

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OwnedBy filters rows by the free-form owner identifier.
type OwnedBy struct {
	UserID string
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByStatuses struct {
	Statuses []string
}

func (s ByStatuses) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Statuses) == 0 {
		return db
	}
	return db.Where("status IN ?", s.Statuses)
}

// ByRecentActivity orders by last activity, falling back to creation time.
type ByRecentActivity struct{}

func (s ByRecentActivity) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("last_activity_at DESC").Order("created_at DESC")
}

// ForUpdate locks the selected rows for the rest of the transaction where the
// dialect supports it.
type ForUpdate struct{}

func (s ForUpdate) Apply(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
