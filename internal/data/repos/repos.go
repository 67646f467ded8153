package repos

import (
	"github.com/yungbote/portfolio-backend/internal/data/repos/workspace"
	"github.com/yungbote/portfolio-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type WorkspaceSnapshotRepo = workspace.WorkspaceSnapshotRepo
type OptimizationRunRepo = workspace.OptimizationRunRepo

func NewWorkspaceSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) WorkspaceSnapshotRepo {
	return workspace.NewWorkspaceSnapshotRepo(db, baseLog)
}
func NewOptimizationRunRepo(db *gorm.DB, baseLog *logger.Logger) OptimizationRunRepo {
	return workspace.NewOptimizationRunRepo(db, baseLog)
}
