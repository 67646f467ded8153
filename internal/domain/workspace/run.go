package workspace

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// OptimizationRun records one submission to the optimization service.
type OptimizationRun struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID uuid.UUID      `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Status      string         `gorm:"column:status;not null;index" json:"status"`
	Request     datatypes.JSON `gorm:"column:request;type:jsonb" json:"request"`
	Result      datatypes.JSON `gorm:"column:result;type:jsonb" json:"result,omitempty"`
	Fitness     *float64       `gorm:"column:fitness" json:"fitness,omitempty"`
	Error       string         `gorm:"column:error" json:"error,omitempty"`
	DurationMS  int64          `gorm:"column:duration_ms;not null" json:"duration_ms"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

func (OptimizationRun) TableName() string { return "optimization_run" }
