package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByWorkspaceID filters by workspace (room) identifier
type ByWorkspaceID struct {
	WorkspaceID string
}

func (s ByWorkspaceID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("workspace_id = ?", s.WorkspaceID)
}

// ByEventType filters activities by event kind
type ByEventType struct {
	EventType string
}

func (s ByEventType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("event_type = ?", s.EventType)
}

// TimeRange bounds rows by their event timestamp; nil bounds are open.
type TimeRange struct {
	Since *time.Time
	Until *time.Time
}

func (s TimeRange) Apply(db *gorm.DB) *gorm.DB {
	if s.Since != nil {
		db = db.Where("timestamp >= ?", *s.Since)
	}
	if s.Until != nil {
		db = db.Where("timestamp <= ?", *s.Until)
	}
	return db
}
