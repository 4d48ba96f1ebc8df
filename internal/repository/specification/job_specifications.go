package specification

import (
	"gorm.io/gorm"
)

// ByJobID filters by the caller-visible job identifier
type ByJobID struct {
	JobID string
}

func (s ByJobID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("job_id = ?", s.JobID)
}

// ByStatus filters jobs by lifecycle status
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ByJobType filters by job type
type ByJobType struct {
	Type string
}

func (s ByJobType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("type = ?", s.Type)
}
