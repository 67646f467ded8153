package domain

import (
	"github.com/yungbote/portfolio-backend/internal/domain/workspace"
)

const (
	RunStatusSucceeded = workspace.RunStatusSucceeded
	RunStatusFailed    = workspace.RunStatusFailed
)

type WorkspaceSnapshot = workspace.WorkspaceSnapshot
type OptimizationRun = workspace.OptimizationRun
