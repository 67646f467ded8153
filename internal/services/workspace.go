package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/portfolio-backend/internal/data/repos"
	types "github.com/yungbote/portfolio-backend/internal/domain"
	"github.com/yungbote/portfolio-backend/internal/matrix"
	"github.com/yungbote/portfolio-backend/internal/observability"
	"github.com/yungbote/portfolio-backend/internal/optimizer"
	"github.com/yungbote/portfolio-backend/internal/platform/dbctx"
	"github.com/yungbote/portfolio-backend/internal/platform/logger"
)

// GraphLoader delivers the dependency graph once per workspace.
type GraphLoader interface {
	Load(ctx context.Context) (matrix.DependencyGraph, error)
}

type Optimizer interface {
	Run(ctx context.Context, req optimizer.Request) (*optimizer.Result, error)
}

type WorkspaceConfig struct {
	InitialDefaults  map[matrix.ValueKind]matrix.Value
	InitialParams    optimizer.RunParams
	GraphLoadTimeout time.Duration
	// IdleTTL is how long a persisted workspace stays in memory untouched
	// before Sweep drops it. Zero disables idle eviction.
	IdleTTL time.Duration
	// MaxWorkspaces caps the workspaces held in memory. Zero means no cap.
	MaxWorkspaces int
}

func DefaultWorkspaceConfig() WorkspaceConfig {
	return WorkspaceConfig{
		InitialDefaults: map[matrix.ValueKind]matrix.Value{
			matrix.Interaction: matrix.Num(20),
			matrix.Information: matrix.Num(0),
		},
		InitialParams:    optimizer.DefaultRunParams(),
		GraphLoadTimeout: 30 * time.Second,
		IdleTTL:          30 * time.Minute,
		MaxWorkspaces:    10000,
	}
}

type WorkspaceService interface {
	Catalog() *matrix.Catalog
	Create(ctx context.Context) (*WorkspaceView, error)
	Get(ctx context.Context, id uuid.UUID) (*WorkspaceView, error)
	List(ctx context.Context, limit int) ([]uuid.UUID, error)
	// Sweep drops persisted workspaces idle for longer than IdleTTL and
	// returns how many it dropped. They come back from storage on next use.
	Sweep(ctx context.Context) int

	SetDefault(ctx context.Context, id uuid.UUID, kind matrix.ValueKind, m matrix.Module, v matrix.Value) (*WorkspaceView, error)
	SetGlobalDefault(ctx context.Context, id uuid.UUID, kind matrix.ValueKind, v matrix.Value) (*WorkspaceView, error)

	OpenDetail(ctx context.Context, id uuid.UUID, kind matrix.ValueKind, m matrix.Module) (*DetailView, error)
	EditDetail(ctx context.Context, id uuid.UUID, kind matrix.ValueKind, m matrix.Module, edits map[matrix.EdgeKey]matrix.Value) (*DetailView, error)
	CommitDetail(ctx context.Context, id uuid.UUID, kind matrix.ValueKind, m matrix.Module) (*WorkspaceView, error)
	CancelDetail(ctx context.Context, id uuid.UUID, kind matrix.ValueKind, m matrix.Module) (*WorkspaceView, error)

	OpenAdoption(ctx context.Context, id uuid.UUID) (*AdoptionView, error)
	EditAdoption(ctx context.Context, id uuid.UUID, rates map[int]float64) (*AdoptionView, error)
	CommitAdoption(ctx context.Context, id uuid.UUID) (*WorkspaceView, error)
	CancelAdoption(ctx context.Context, id uuid.UUID) (*WorkspaceView, error)

	SetParams(ctx context.Context, id uuid.UUID, params optimizer.RunParams) (*WorkspaceView, error)
	Assemble(ctx context.Context, id uuid.UUID) (*MatricesView, error)
	Submit(ctx context.Context, id uuid.UUID) (*optimizer.Result, error)
	Runs(ctx context.Context, id uuid.UUID, limit int) ([]*types.OptimizationRun, error)
}

type workspace struct {
	mu         sync.Mutex
	id         uuid.UUID
	engine     *matrix.Engine
	params     optimizer.RunParams
	version    int
	submitting bool
	lastError  string
	lastResult *optimizer.Result
	graphDone  chan struct{}

	lastAccess time.Time
	// persisted is the last version storage accepted.
	persisted int
	evicted   bool
}

type workspaceService struct {
	log       *logger.Logger
	catalog   *matrix.Catalog
	loader    GraphLoader
	optimizer Optimizer
	snapshots repos.WorkspaceSnapshotRepo
	runs      repos.OptimizationRunRepo
	notify    WorkspaceNotifier
	cfg       WorkspaceConfig
	now       func() time.Time

	mu         sync.RWMutex
	workspaces map[uuid.UUID]*workspace
}

// NewWorkspaceService wires the workspace store. snapshots and runs may be nil,
// in which case workspaces live only in memory; a nil notify disables events.
func NewWorkspaceService(
	baseLog *logger.Logger,
	catalog *matrix.Catalog,
	loader GraphLoader,
	opt Optimizer,
	snapshots repos.WorkspaceSnapshotRepo,
	runs repos.OptimizationRunRepo,
	notify WorkspaceNotifier,
	cfg WorkspaceConfig,
) WorkspaceService {
	if notify == nil {
		notify = NewWorkspaceNotifier(nil)
	}
	if cfg.InitialDefaults == nil {
		cfg.InitialDefaults = DefaultWorkspaceConfig().InitialDefaults
	}
	if cfg.GraphLoadTimeout <= 0 {
		cfg.GraphLoadTimeout = 30 * time.Second
	}
	return &workspaceService{
		log:        baseLog.With("service", "WorkspaceService"),
		catalog:    catalog,
		loader:     loader,
		optimizer:  opt,
		snapshots:  snapshots,
		runs:       runs,
		notify:     notify,
		cfg:        cfg,
		now:        time.Now,
		workspaces: map[uuid.UUID]*workspace{},
	}
}

func (s *workspaceService) Catalog() *matrix.Catalog { return s.catalog }

func (s *workspaceService) Create(ctx context.Context) (*WorkspaceView, error) {
	ws := &workspace{
		id:         uuid.New(),
		engine:     matrix.NewEngine(s.catalog, s.cfg.InitialDefaults),
		params:     s.cfg.InitialParams,
		graphDone:  make(chan struct{}),
		lastAccess: s.now(),
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	s.mu.Lock()
	if limit := s.cfg.MaxWorkspaces; limit > 0 && len(s.workspaces) >= limit {
		n := s.evictLocked(ws.lastAccess, len(s.workspaces)-limit+1)
		observability.Current().AddEvictions("capacity", n)
		if len(s.workspaces) >= limit {
			count := len(s.workspaces)
			s.mu.Unlock()
			observability.Current().SetWorkspaces(count)
			s.log.Warn("workspace limit reached", "max", limit)
			return nil, ErrWorkspaceLimit
		}
	}
	s.workspaces[ws.id] = ws
	count := len(s.workspaces)
	s.mu.Unlock()
	observability.Current().SetWorkspaces(count)

	s.persistLocked(ctx, ws)
	go s.loadGraph(ws)

	s.log.Info("workspace created", "workspace_id", ws.id)
	return ws.view()
}

func (s *workspaceService) Get(ctx context.Context, id uuid.UUID) (*WorkspaceView, error) {
	ws, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer ws.mu.Unlock()
	return ws.view()
}

// List returns workspace ids, most recently stored first when storage is
// configured, otherwise the in-memory ids sorted.
func (s *workspaceService) List(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 50
	}
	if s.snapshots != nil {
		return s.snapshots.ListIDs(dbctx.Context{Ctx: ctx}, limit)
	}
	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.workspaces))
	for id := range s.workspaces {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *workspaceService) SetDefault(ctx context.Context, id uuid.UUID, kind matrix.ValueKind, m matrix.Module, v matrix.Value) (*WorkspaceView, error) {
	return s.mutate(ctx, id, func(ws *workspace) error {
		return ws.engine.SetDefault(kind, m, v)
	})
}

func (s *workspaceService) SetGlobalDefault(ctx context.Context, id uuid.UUID, kind matrix.ValueKind, v matrix.Value) (*WorkspaceView, error) {
	return s.mutate(ctx, id, func(ws *workspace) error {
		return ws.engine.SetGlobalDefault(kind, v)
	})
}

func (s *workspaceService) OpenDetail(ctx context.Context, id uuid.UUID, kind matrix.ValueKind, m matrix.Module) (*DetailView, error) {
	ws, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer ws.mu.Unlock()
	sess, err := ws.engine.OpenDetail(kind, m)
	if err != nil {
		return nil, s.engineErr(ws, "open detail", err)
	}
	return detailView(s.catalog, sess), nil
}

// EditDetail applies every edit to the working copy, or none of them.
func (s *workspaceService) EditDetail(ctx context.Context, id uuid.UUID, kind matrix.ValueKind, m matrix.Module, edits map[matrix.EdgeKey]matrix.Value) (*DetailView, error) {
	ws, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer ws.mu.Unlock()
	sess, ok := ws.engine.Detail(kind, m)
	if !ok {
		return nil, ErrNoOpenSession
	}
	working := map[matrix.EdgeKey]bool{}
	for _, e := range sess.Working() {
		working[e.Key] = true
	}
	for key := range edits {
		if !working[key] {
			return nil, fmt.Errorf("%w: %s is not an incoming edge of %s", ErrUnknownEdge, s.catalog.WireKey(key), s.catalog.Name(m))
		}
	}
	for key, v := range edits {
		if err := sess.Edit(key, v); err != nil {
			return nil, s.engineErr(ws, "edit detail", err)
		}
	}
	return detailView(s.catalog, sess), nil
}

func (s *workspaceService) CommitDetail(ctx context.Context, id uuid.UUID, kind matrix.ValueKind, m matrix.Module) (*WorkspaceView, error) {
	return s.mutate(ctx, id, func(ws *workspace) error {
		sess, ok := ws.engine.Detail(kind, m)
		if !ok {
			return ErrNoOpenSession
		}
		return sess.Commit()
	})
}

func (s *workspaceService) CancelDetail(ctx context.Context, id uuid.UUID, kind matrix.ValueKind, m matrix.Module) (*WorkspaceView, error) {
	ws, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer ws.mu.Unlock()
	sess, ok := ws.engine.Detail(kind, m)
	if !ok {
		return nil, ErrNoOpenSession
	}
	if err := sess.Cancel(); err != nil {
		return nil, s.engineErr(ws, "cancel detail", err)
	}
	return ws.view()
}

func (s *workspaceService) OpenAdoption(ctx context.Context, id uuid.UUID) (*AdoptionView, error) {
	ws, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer ws.mu.Unlock()
	if _, err := ws.engine.OpenAdoption(); err != nil {
		return nil, s.engineErr(ws, "open adoption", err)
	}
	return adoptionView(ws.engine), nil
}

func (s *workspaceService) EditAdoption(ctx context.Context, id uuid.UUID, rates map[int]float64) (*AdoptionView, error) {
	ws, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer ws.mu.Unlock()
	ed, ok := ws.engine.AdoptionEditor()
	if !ok {
		return nil, ErrNoOpenSession
	}
	for index, v := range rates {
		if index < 0 || index >= matrix.AdoptionSlots {
			// rejected by the editor without touching the working copy
			return nil, s.engineErr(ws, "edit adoption", ed.Edit(index, v))
		}
	}
	for index, v := range rates {
		if err := ed.Edit(index, v); err != nil {
			return nil, s.engineErr(ws, "edit adoption", err)
		}
	}
	return adoptionView(ws.engine), nil
}

func (s *workspaceService) CommitAdoption(ctx context.Context, id uuid.UUID) (*WorkspaceView, error) {
	return s.mutate(ctx, id, func(ws *workspace) error {
		ed, ok := ws.engine.AdoptionEditor()
		if !ok {
			return ErrNoOpenSession
		}
		return ed.Commit()
	})
}

func (s *workspaceService) CancelAdoption(ctx context.Context, id uuid.UUID) (*WorkspaceView, error) {
	ws, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer ws.mu.Unlock()
	ed, ok := ws.engine.AdoptionEditor()
	if !ok {
		return nil, ErrNoOpenSession
	}
	if err := ed.Cancel(); err != nil {
		return nil, s.engineErr(ws, "cancel adoption", err)
	}
	return ws.view()
}

func (s *workspaceService) SetParams(ctx context.Context, id uuid.UUID, params optimizer.RunParams) (*WorkspaceView, error) {
	return s.mutate(ctx, id, func(ws *workspace) error {
		ws.params = params
		return nil
	})
}

func (s *workspaceService) Assemble(ctx context.Context, id uuid.UUID) (*MatricesView, error) {
	ws, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer ws.mu.Unlock()
	return s.assembleLocked(ws)
}

func (s *workspaceService) assembleLocked(ws *workspace) (*MatricesView, error) {
	interaction, err := ws.engine.Assemble(matrix.Interaction)
	if err != nil {
		return nil, s.engineErr(ws, "assemble", err)
	}
	information, err := ws.engine.Assemble(matrix.Information)
	if err != nil {
		return nil, s.engineErr(ws, "assemble", err)
	}
	return &MatricesView{Interaction: interaction, Information: information}, nil
}

// Submit assembles both matrices and calls the optimizer without holding the
// workspace lock. Matrix and override state are never touched; on failure the
// previous result stays in place and the error becomes the visible LastError.
func (s *workspaceService) Submit(ctx context.Context, id uuid.UUID) (*optimizer.Result, error) {
	ws, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws.submitting {
		ws.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if missing := ws.engine.Incomplete(); len(missing) > 0 {
		ws.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrIncompleteInput, summarize(missing, 5))
	}
	mats, err := s.assembleLocked(ws)
	if err != nil {
		ws.mu.Unlock()
		return nil, err
	}
	rates, _ := ws.engine.Adoption()
	req := optimizer.Request{
		RunParams:         ws.params,
		InteractionMatrix: mats.Interaction.Wire(),
		InformationMatrix: mats.Information.Wire(),
		AdoptionRate:      rates[:],
	}
	ws.submitting = true
	ws.mu.Unlock()
	s.notify.OptimizationStarted(ws.id)

	start := time.Now()
	res, callErr := s.optimizer.Run(ctx, req)
	dur := time.Since(start)
	// recorded while still in flight so an eviction never outruns the run row
	s.recordRun(ctx, ws.id, req, res, callErr, dur)

	ws.mu.Lock()
	ws.submitting = false
	if callErr != nil {
		ws.lastError = "optimization failed: " + callErr.Error()
	} else {
		ws.lastResult = res
		ws.lastError = ""
	}
	ws.mu.Unlock()

	if callErr != nil {
		s.notify.OptimizationFailed(ws.id, callErr.Error())
		s.log.Warn("optimization run failed", "workspace_id", ws.id, "duration_ms", dur.Milliseconds(), "error", callErr)
		return nil, callErr
	}
	s.notify.OptimizationFinished(ws.id, res)
	s.log.Info("optimization run finished", "workspace_id", ws.id, "duration_ms", dur.Milliseconds(), "fitness", res.Fitness)
	return res, nil
}

func (s *workspaceService) Runs(ctx context.Context, id uuid.UUID, limit int) ([]*types.OptimizationRun, error) {
	if _, err := s.lookup(ctx, id); err != nil {
		return nil, err
	}
	if s.runs == nil {
		return []*types.OptimizationRun{}, nil
	}
	return s.runs.ListByWorkspace(dbctx.Context{Ctx: ctx}, id, limit)
}

// mutate runs fn under the workspace lock and persists the result when fn
// committed something.
func (s *workspaceService) mutate(ctx context.Context, id uuid.UUID, fn func(ws *workspace) error) (*WorkspaceView, error) {
	ws, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer ws.mu.Unlock()
	if err := fn(ws); err != nil {
		return nil, s.engineErr(ws, "mutate", err)
	}
	s.persistLocked(ctx, ws)
	return s.publishLocked(ws)
}

// publishLocked renders ws and pushes the view to its event stream.
func (s *workspaceService) publishLocked(ws *workspace) (*WorkspaceView, error) {
	view, err := ws.view()
	if err != nil {
		return nil, err
	}
	s.notify.WorkspaceUpdated(ws.id, view)
	return view, nil
}

// engineErr logs invariant violations loudly; they indicate a bug, not bad input.
func (s *workspaceService) engineErr(ws *workspace, op string, err error) error {
	if errors.Is(err, matrix.ErrInvariant) {
		s.log.Error("matrix invariant violated", "workspace_id", ws.id, "op", op, "error", err)
	}
	return err
}

// acquire returns the workspace locked and marked as used. A workspace evicted
// between lookup and lock is looked up again, which restores it from storage.
func (s *workspaceService) acquire(ctx context.Context, id uuid.UUID) (*workspace, error) {
	for {
		ws, err := s.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		ws.mu.Lock()
		if ws.evicted {
			ws.mu.Unlock()
			continue
		}
		ws.lastAccess = s.now()
		return ws, nil
	}
}

func (s *workspaceService) lookup(ctx context.Context, id uuid.UUID) (*workspace, error) {
	s.mu.RLock()
	ws, ok := s.workspaces[id]
	s.mu.RUnlock()
	if ok {
		return ws, nil
	}
	if s.snapshots == nil || id == uuid.Nil {
		return nil, ErrWorkspaceNotFound
	}

	row, err := s.snapshots.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", id, err)
	}
	if row == nil {
		return nil, ErrWorkspaceNotFound
	}
	restored, err := s.restore(ctx, row)
	if err != nil {
		s.log.Error("stored workspace is unreadable", "workspace_id", id, "error", err)
		return nil, fmt.Errorf("restore workspace %s: %w", id, err)
	}

	s.mu.Lock()
	if existing, ok := s.workspaces[id]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.workspaces[id] = restored
	count := len(s.workspaces)
	s.mu.Unlock()
	observability.Current().SetWorkspaces(count)

	if restored.engine.GraphLoaded() {
		close(restored.graphDone)
	} else {
		go s.loadGraph(restored)
	}
	s.log.Info("workspace restored", "workspace_id", id, "version", row.Version)
	return restored, nil
}

// waitGraph blocks until the workspace's graph delivery has finished.
func (s *workspaceService) waitGraph(ctx context.Context, id uuid.UUID) error {
	ws, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	select {
	case <-ws.graphDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *workspaceService) restore(ctx context.Context, row *types.WorkspaceSnapshot) (*workspace, error) {
	var snap matrix.Snapshot
	if err := json.Unmarshal(row.State, &snap); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	engine, err := matrix.Restore(s.catalog, snap)
	if err != nil {
		return nil, err
	}
	params := s.cfg.InitialParams
	if len(row.Params) > 0 {
		if err := json.Unmarshal(row.Params, &params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
	}
	ws := &workspace{
		id:         row.ID,
		engine:     engine,
		params:     params,
		version:    row.Version,
		persisted:  row.Version,
		graphDone:  make(chan struct{}),
		lastAccess: s.now(),
	}
	s.restoreLastRun(ctx, ws)
	return ws, nil
}

// restoreLastRun brings back the outcome of the newest recorded run.
func (s *workspaceService) restoreLastRun(ctx context.Context, ws *workspace) {
	if s.runs == nil {
		return
	}
	runs, err := s.runs.ListByWorkspace(dbctx.Context{Ctx: ctx}, ws.id, 1)
	if err != nil {
		s.log.Warn("load last optimization run failed", "workspace_id", ws.id, "error", err)
		return
	}
	if len(runs) == 0 {
		return
	}
	last := runs[0]
	if last.Status == types.RunStatusFailed {
		ws.lastError = "optimization failed: " + last.Error
		return
	}
	if len(last.Result) == 0 {
		return
	}
	var res optimizer.Result
	if err := json.Unmarshal(last.Result, &res); err != nil {
		s.log.Warn("decode last optimization run failed", "workspace_id", ws.id, "error", err)
		return
	}
	ws.lastResult = &res
}

// loadGraph is the one-shot graph delivery. A failed load degrades to an empty
// graph and leaves the reason in LastError.
func (s *workspaceService) loadGraph(ws *workspace) {
	defer close(ws.graphDone)
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GraphLoadTimeout)
	defer cancel()

	graph, loadErr := s.loader.Load(ctx)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if loadErr != nil {
		s.log.Warn("dependency graph load failed", "workspace_id", ws.id, "error", loadErr)
		ws.lastError = "dependency graph load failed: " + loadErr.Error()
		s.notify.GraphLoadFailed(ws.id, ws.lastError)
		graph = matrix.DependencyGraph{}
	}
	if err := ws.engine.OnDependencyGraphLoaded(graph); err != nil {
		s.log.Error("dependency graph rejected", "workspace_id", ws.id, "error", err)
		ws.lastError = "dependency graph rejected: " + err.Error()
		s.notify.GraphLoadFailed(ws.id, ws.lastError)
		_, _ = s.publishLocked(ws)
		return
	}
	if loadErr == nil {
		s.notify.GraphLoaded(ws.id, graph.EdgeCount())
	}
	s.persistLocked(ctx, ws)
	_, _ = s.publishLocked(ws)
}

// persistLocked saves the engine snapshot. Failures are logged and counted,
// never returned: the in-memory workspace stays authoritative.
func (s *workspaceService) persistLocked(ctx context.Context, ws *workspace) {
	ws.version++
	if s.snapshots == nil {
		return
	}
	state, err := json.Marshal(ws.engine.Snapshot())
	if err != nil {
		s.log.Error("encode workspace snapshot", "workspace_id", ws.id, "error", err)
		return
	}
	params, err := json.Marshal(ws.params)
	if err != nil {
		s.log.Error("encode run params", "workspace_id", ws.id, "error", err)
		return
	}
	row := &types.WorkspaceSnapshot{ID: ws.id, State: state, Params: params, Version: ws.version}
	if err := s.snapshots.Upsert(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, row); err != nil {
		observability.Current().IncPersistError("workspace_snapshot")
		s.log.Warn("persist workspace snapshot failed", "workspace_id", ws.id, "version", ws.version, "error", err)
		return
	}
	ws.persisted = ws.version
}

func (s *workspaceService) Sweep(ctx context.Context) int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	n := s.evictLocked(s.now().Add(-s.cfg.IdleTTL), -1)
	count := len(s.workspaces)
	s.mu.Unlock()

	observability.Current().SetWorkspaces(count)
	observability.Current().AddEvictions("idle", n)
	if n > 0 {
		s.log.Info("idle workspaces evicted", "evicted", n, "remaining", count)
	}
	return n
}

// evictLocked drops up to limit (all when negative) evictable workspaces last
// used before cutoff, least recently used first. Workspaces busy under their
// own lock are skipped. Callers hold s.mu.
func (s *workspaceService) evictLocked(cutoff time.Time, limit int) int {
	var held []*workspace
	for _, ws := range s.workspaces {
		if !ws.mu.TryLock() {
			continue
		}
		if ws.lastAccess.Before(cutoff) && s.evictableLocked(ws) {
			held = append(held, ws)
		} else {
			ws.mu.Unlock()
		}
	}
	sort.Slice(held, func(i, j int) bool { return held[i].lastAccess.Before(held[j].lastAccess) })

	n := 0
	for _, ws := range held {
		if limit < 0 || n < limit {
			ws.evicted = true
			delete(s.workspaces, ws.id)
			n++
		}
		ws.mu.Unlock()
	}
	return n
}

// evictableLocked holds when dropping ws loses nothing: storage has its latest
// version and nothing is in progress on it.
func (s *workspaceService) evictableLocked(ws *workspace) bool {
	if s.snapshots == nil || ws.persisted != ws.version || ws.submitting {
		return false
	}
	select {
	case <-ws.graphDone:
	default:
		return false
	}
	if len(ws.engine.OpenDetails()) > 0 {
		return false
	}
	if _, open := ws.engine.AdoptionEditor(); open {
		return false
	}
	return !s.notify.Watching(ws.id)
}

func (s *workspaceService) recordRun(ctx context.Context, workspaceID uuid.UUID, req optimizer.Request, res *optimizer.Result, callErr error, dur time.Duration) {
	status := types.RunStatusSucceeded
	if callErr != nil {
		status = types.RunStatusFailed
	}
	observability.Current().ObserveOptimizerRun(status, dur)
	if s.runs == nil {
		return
	}
	run := &types.OptimizationRun{
		WorkspaceID: workspaceID,
		Status:      status,
		DurationMS:  dur.Milliseconds(),
	}
	if raw, err := json.Marshal(req); err == nil {
		run.Request = raw
	}
	if callErr != nil {
		run.Error = callErr.Error()
	} else {
		fitness := res.Fitness
		run.Fitness = &fitness
		if raw, err := json.Marshal(res); err == nil {
			run.Result = raw
		}
	}
	if err := s.runs.Create(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, run); err != nil {
		observability.Current().IncPersistError("optimization_run")
		s.log.Warn("record optimization run failed", "workspace_id", workspaceID, "error", err)
	}
}

func summarize(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(items[:limit], ", "), len(items)-limit)
}
