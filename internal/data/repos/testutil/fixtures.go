package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/portfolio-backend/internal/domain"
)

func SeedWorkspaceSnapshot(tb testing.TB, ctx context.Context, tx *gorm.DB, updatedAt time.Time) *types.WorkspaceSnapshot {
	tb.Helper()
	row := &types.WorkspaceSnapshot{
		ID:        uuid.New(),
		State:     datatypes.JSON([]byte(`{"graph_loaded":false}`)),
		Params:    datatypes.JSON([]byte(`{"population":100}`)),
		Version:   1,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed workspace snapshot: %v", err)
	}
	return row
}
