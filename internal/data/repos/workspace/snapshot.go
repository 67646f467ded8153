package workspace

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/portfolio-backend/internal/domain"
	"github.com/yungbote/portfolio-backend/internal/platform/dbctx"
	"github.com/yungbote/portfolio-backend/internal/platform/logger"
)

type WorkspaceSnapshotRepo interface {
	Upsert(dbc dbctx.Context, row *types.WorkspaceSnapshot) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.WorkspaceSnapshot, error)
	ListIDs(dbc dbctx.Context, limit int) ([]uuid.UUID, error)
}

type workspaceSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkspaceSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) WorkspaceSnapshotRepo {
	return &workspaceSnapshotRepo{
		db:  db,
		log: baseLog.With("repo", "WorkspaceSnapshotRepo"),
	}
}

// Upsert replaces the stored state for row.ID and bumps its version.
func (r *workspaceSnapshotRepo) Upsert(dbc dbctx.Context, row *types.WorkspaceSnapshot) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"state",
				"params",
				"version",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *workspaceSnapshotRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.WorkspaceSnapshot, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.WorkspaceSnapshot
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// ListIDs returns the most recently updated workspaces first.
func (r *workspaceSnapshotRepo) ListIDs(dbc dbctx.Context, limit int) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var rows []types.WorkspaceSnapshot
	if err := t.WithContext(dbc.Ctx).
		Select("id").
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ID)
	}
	return out, nil
}
