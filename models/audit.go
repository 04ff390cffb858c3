package models

import (
	"time"

	"gorm.io/gorm"
)

// AuditFields is embedded by value in every persisted entity.
// A row is live while DeletedAt is null; gorm filters soft-deleted rows from every query.
type AuditFields struct {
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	CreatedByID *uint          `json:"created_by,omitempty" gorm:"column:created_by"`
	UpdatedByID *uint          `json:"updated_by,omitempty" gorm:"column:updated_by"`
	DeletedByID *uint          `json:"deleted_by,omitempty" gorm:"column:deleted_by"`
}

// StampCreated records actorID as creator and last updater. A zero actor leaves both unset.
func (a *AuditFields) StampCreated(actorID uint) {
	if actorID == 0 {
		return
	}
	a.CreatedByID = UserRef(actorID)
	a.UpdatedByID = UserRef(actorID)
}

// UserRef returns a pointer suitable for the nullable user reference columns.
func UserRef(id uint) *uint {
	return &id
}
