package workspace

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WorkspaceSnapshot is the last persisted engine state of one workspace.
// State holds a matrix.Snapshot and Params the optimizer run parameters.
type WorkspaceSnapshot struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	State     datatypes.JSON `gorm:"column:state;type:jsonb;not null" json:"state"`
	Params    datatypes.JSON `gorm:"column:params;type:jsonb;not null" json:"params"`
	Version   int            `gorm:"column:version;not null" json:"version"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;index" json:"updated_at"`
}

func (WorkspaceSnapshot) TableName() string { return "workspace_snapshot" }
