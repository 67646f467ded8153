package workspace

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/portfolio-backend/internal/domain"
	"github.com/yungbote/portfolio-backend/internal/platform/dbctx"
	"github.com/yungbote/portfolio-backend/internal/platform/logger"
)

type OptimizationRunRepo interface {
	Create(dbc dbctx.Context, run *types.OptimizationRun) error
	ListByWorkspace(dbc dbctx.Context, workspaceID uuid.UUID, limit int) ([]*types.OptimizationRun, error)
}

type optimizationRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOptimizationRunRepo(db *gorm.DB, baseLog *logger.Logger) OptimizationRunRepo {
	return &optimizationRunRepo{
		db:  db,
		log: baseLog.With("repo", "OptimizationRunRepo"),
	}
}

func (r *optimizationRunRepo) Create(dbc dbctx.Context, run *types.OptimizationRun) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if run == nil {
		return nil
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).Create(run).Error
}

// ListByWorkspace returns the newest runs first.
func (r *optimizationRunRepo) ListByWorkspace(dbc dbctx.Context, workspaceID uuid.UUID, limit int) ([]*types.OptimizationRun, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.OptimizationRun{}
	if workspaceID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if err := t.WithContext(dbc.Ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
