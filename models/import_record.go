package models

import (
	"time"

	"github.com/google/uuid"
)

// Import statuses mirror the lifecycle of a single CSV ingestion.
const (
	ImportStatusRunning   = "running"
	ImportStatusCompleted = "completed"
	ImportStatusFailed    = "failed"
)

// ImportRecord is the audit trail of one import attempt, stored in Postgres.
type ImportRecord struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FileName     string     `gorm:"type:varchar(255);not null" json:"file_name"`
	Source       string     `gorm:"type:varchar(20);default:manual" json:"source"`
	RowsImported int        `gorm:"not null;default:0" json:"rows_imported"`
	RowsSkipped  int        `gorm:"not null;default:0" json:"rows_skipped"`
	Status       string     `gorm:"type:varchar(20);not null" json:"status"`
	Error        string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt    time.Time  `gorm:"autoCreateTime" json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// TableName overrides the default GORM table name.
func (ImportRecord) TableName() string { return "import_history" }
