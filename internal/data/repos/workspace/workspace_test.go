package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/portfolio-backend/internal/data/repos/testutil"
	types "github.com/yungbote/portfolio-backend/internal/domain"
	"github.com/yungbote/portfolio-backend/internal/platform/dbctx"
)

func TestWorkspaceSnapshotRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewWorkspaceSnapshotRepo(db, testutil.Logger(t))

	id := uuid.New()
	if err := repo.Upsert(dbc, &types.WorkspaceSnapshot{
		ID:      id,
		State:   datatypes.JSON([]byte(`{"graph_loaded":false}`)),
		Params:  datatypes.JSON([]byte(`{"population":100}`)),
		Version: 1,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(dbc, &types.WorkspaceSnapshot{
		ID:      id,
		State:   datatypes.JSON([]byte(`{"graph_loaded":true}`)),
		Params:  datatypes.JSON([]byte(`{"population":250}`)),
		Version: 2,
	}); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	got, err := repo.GetByID(dbc, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Version != 2 {
		t.Fatalf("GetByID: expected version 2, got %+v", got)
	}
	if string(got.Params) == "" || got.CreatedAt.IsZero() {
		t.Fatalf("GetByID: incomplete row %+v", got)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID(missing): row=%v err=%v", missing, err)
	}
	if none, err := repo.GetByID(dbc, uuid.Nil); err != nil || none != nil {
		t.Fatalf("GetByID(nil): row=%v err=%v", none, err)
	}
}

func TestWorkspaceSnapshotRepoListIDs(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewWorkspaceSnapshotRepo(db, testutil.Logger(t))

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	older := testutil.SeedWorkspaceSnapshot(t, ctx, tx, base)
	newer := testutil.SeedWorkspaceSnapshot(t, ctx, tx, base.Add(2*time.Hour))

	ids, err := repo.ListIDs(dbc, 10)
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != newer.ID || ids[1] != older.ID {
		t.Fatalf("ListIDs: expected [%s %s], got %v", newer.ID, older.ID, ids)
	}
}

func TestOptimizationRunRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewOptimizationRunRepo(db, testutil.Logger(t))

	workspaceID := uuid.New()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	fitness := 154000.25

	failed := &types.OptimizationRun{
		WorkspaceID: workspaceID,
		Status:      types.RunStatusFailed,
		Request:     datatypes.JSON([]byte(`{}`)),
		Error:       "optimizer http error: status=500",
		DurationMS:  12,
		CreatedAt:   base,
	}
	succeeded := &types.OptimizationRun{
		WorkspaceID: workspaceID,
		Status:      types.RunStatusSucceeded,
		Request:     datatypes.JSON([]byte(`{}`)),
		Result:      datatypes.JSON([]byte(`{"fitness":154000.25}`)),
		Fitness:     &fitness,
		DurationMS:  900,
		CreatedAt:   base.Add(time.Hour),
	}
	other := &types.OptimizationRun{
		WorkspaceID: uuid.New(),
		Status:      types.RunStatusSucceeded,
		Request:     datatypes.JSON([]byte(`{}`)),
		CreatedAt:   base.Add(2 * time.Hour),
	}
	for _, run := range []*types.OptimizationRun{failed, succeeded, other} {
		if err := repo.Create(dbc, run); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if run.ID == uuid.Nil {
			t.Fatalf("Create: expected generated id")
		}
	}

	runs, err := repo.ListByWorkspace(dbc, workspaceID, 10)
	if err != nil {
		t.Fatalf("ListByWorkspace: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListByWorkspace: expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != succeeded.ID || runs[1].ID != failed.ID {
		t.Fatalf("ListByWorkspace: expected newest first")
	}
	if runs[0].Fitness == nil || *runs[0].Fitness != fitness {
		t.Fatalf("ListByWorkspace: fitness not persisted: %+v", runs[0])
	}
	if runs[1].Error == "" || runs[1].Fitness != nil {
		t.Fatalf("ListByWorkspace: failed run mismatch: %+v", runs[1])
	}

	limited, err := repo.ListByWorkspace(dbc, workspaceID, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("ListByWorkspace(limit 1): runs=%d err=%v", len(limited), err)
	}
}
