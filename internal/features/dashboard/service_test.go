package dashboard

import (
	"context"
	"errors"
	"testing"

	common_models "go-insight/internal/common/models"
	"go-insight/internal/features/kpi"
	"go-insight/internal/features/system"

	"go.uber.org/zap"
)

type mockDashboardRepository struct {
	saved map[string][]Dashboard
	err   error
}

func (m *mockDashboardRepository) FindByOwner(ctx context.Context, tenantID, ownerID string) ([]Dashboard, error) {
	return m.saved[tenantID+"/"+ownerID], nil
}

func (m *mockDashboardRepository) SaveAll(ctx context.Context, tenantID, ownerID string, dashboards []Dashboard) error {
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = map[string][]Dashboard{}
	}
	m.saved[tenantID+"/"+ownerID] = dashboards
	return nil
}

type mockKPIService struct {
	results map[string]*kpi.Result
}

func (m *mockKPIService) CreateDefinition(ctx context.Context, def *kpi.Definition, tenantID string) error {
	return nil
}
func (m *mockKPIService) GetDefinition(ctx context.Context, id string) (*kpi.Definition, error) {
	return nil, errors.New("not implemented")
}
func (m *mockKPIService) ListDefinitions(ctx context.Context, tenantID string) ([]kpi.Definition, error) {
	return nil, nil
}
func (m *mockKPIService) UpdateDefinition(ctx context.Context, id string, def *kpi.Definition) error {
	return nil
}
func (m *mockKPIService) DeleteDefinition(ctx context.Context, id string) error { return nil }

func (m *mockKPIService) Evaluate(ctx context.Context, id string, inputs map[string]float64) (*kpi.Result, error) {
	result, ok := m.results[id]
	if !ok {
		return nil, errors.New("kpi not found")
	}
	return result, nil
}

type mockAuditService struct {
	logged int
}

func (m *mockAuditService) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	m.logged++
	return nil
}

func (m *mockAuditService) ListLogs(ctx context.Context, filters map[string]interface{}, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func newTestService(t *testing.T) (*DashboardServiceImpl, *memorySnapshotStore, *mockDashboardRepository, *mockAuditService) {
	t.Helper()
	snap := newMemorySnapshotStore()
	repo := &mockDashboardRepository{}
	auditSvc := &mockAuditService{}
	kpiSvc := &mockKPIService{results: map[string]*kpi.Result{
		"kpi-1": {Key: "answer_rate", Value: 92.5, OnTarget: true},
	}}
	svc := NewDashboardService(snap, repo, kpiSvc, auditSvc, system.NewHub(), zap.NewNop()).(*DashboardServiceImpl)
	return svc, snap, repo, auditSvc
}

func TestServiceSessionsAreScoped(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateDashboard(ctx, "tenant-a", "user-1", "Mine"); err != nil {
		t.Fatalf("CreateDashboard: %v", err)
	}

	// Same user id under another tenant sees its own state.
	other, err := svc.ListDashboards(ctx, "tenant-b", "user-1")
	if err != nil {
		t.Fatalf("ListDashboards: %v", err)
	}
	if len(other) != 1 || other[0].ID != DefaultDashboardID {
		t.Errorf("tenant-b session leaked tenant-a state: %+v", other)
	}

	mine, _ := svc.ListDashboards(ctx, "tenant-a", "user-1")
	if len(mine) != 2 {
		t.Errorf("expected 2 dashboards for tenant-a, got %d", len(mine))
	}
}

func TestServiceCreateDashboardMirrorsToRepo(t *testing.T) {
	svc, _, repo, auditSvc := newTestService(t)
	ctx := context.Background()

	d, err := svc.CreateDashboard(ctx, "tenant-a", "user-1", "Team Queue")
	if err != nil {
		t.Fatalf("CreateDashboard: %v", err)
	}
	if d.CreatedBy != "user-1" {
		t.Errorf("created_by = %q, want user-1", d.CreatedBy)
	}

	mirrored := repo.saved["tenant-a/user-1"]
	if len(mirrored) != 2 {
		t.Fatalf("expected mirror of 2 dashboards, got %d", len(mirrored))
	}
	if auditSvc.logged == 0 {
		t.Error("expected an audit entry for dashboard creation")
	}
}

func TestServiceSaveSurfacesSnapshotFailure(t *testing.T) {
	svc, snap, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.AddWidget(ctx, "tenant-a", "user-1", Widget{Title: "W", Kind: WidgetKindValue, Size: WidgetSizeSmall}); err != nil {
		t.Fatalf("AddWidget: %v", err)
	}

	snap.saveErr = errors.New("disk full")
	if err := svc.Save(ctx, "tenant-a", "user-1"); err == nil {
		t.Fatal("expected save failure to surface")
	}

	snap.saveErr = nil
	if err := svc.Save(ctx, "tenant-a", "user-1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestServiceGetDashboardData(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	w1, err := svc.AddWidget(ctx, "tenant-a", "user-1", Widget{Title: "Answer Rate", Kind: WidgetKindValue, Size: WidgetSizeSmall, KPIID: "kpi-1"})
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	w2, _ := svc.AddWidget(ctx, "tenant-a", "user-1", Widget{Title: "Broken", Kind: WidgetKindValue, Size: WidgetSizeSmall, KPIID: "gone"})
	w3, _ := svc.AddWidget(ctx, "tenant-a", "user-1", Widget{Title: "Agents", Kind: WidgetKindTable, Size: WidgetSizeFull,
		Config: WidgetConfig{Table: &TableSettings{Columns: []string{"agent", "calls"}}}})

	data, err := svc.GetDashboardData(ctx, "tenant-a", "user-1", DefaultDashboardID)
	if err != nil {
		t.Fatalf("GetDashboardData: %v", err)
	}

	result, ok := data[w1.ID].(*kpi.Result)
	if !ok || result.Value != 92.5 {
		t.Errorf("widget %s data = %#v", w1.ID, data[w1.ID])
	}

	// A failing widget reports its error without failing the dashboard.
	errEntry, ok := data[w2.ID].(map[string]interface{})
	if !ok || errEntry["error"] == nil {
		t.Errorf("widget %s should carry an error entry, got %#v", w2.ID, data[w2.ID])
	}

	settings, ok := data[w3.ID].(*TableSettings)
	if !ok || len(settings.Columns) != 2 {
		t.Errorf("widget %s data = %#v", w3.ID, data[w3.ID])
	}

	if _, err := svc.GetDashboardData(ctx, "tenant-a", "user-1", "no-such-id"); err == nil {
		t.Error("expected error for unknown dashboard")
	}
}

func TestServiceFlushDirty(t *testing.T) {
	svc, snap, _, _ := newTestService(t)
	ctx := context.Background()

	svc.AddWidget(ctx, "tenant-a", "user-1", Widget{Title: "A", Kind: WidgetKindValue, Size: WidgetSizeSmall})
	svc.AddWidget(ctx, "tenant-b", "user-2", Widget{Title: "B", Kind: WidgetKindValue, Size: WidgetSizeSmall})

	// One clean session that needs no flush.
	svc.ListDashboards(ctx, "tenant-c", "user-3")

	if flushed := svc.FlushDirty(ctx); flushed != 2 {
		t.Errorf("flushed = %d, want 2", flushed)
	}
	if flushed := svc.FlushDirty(ctx); flushed != 0 {
		t.Errorf("second flush = %d, want 0", flushed)
	}

	if _, ok := snap.snapshots["tenant-a/user-1"]; !ok {
		t.Error("tenant-a session not flushed")
	}
	if _, ok := snap.snapshots["tenant-b/user-2"]; !ok {
		t.Error("tenant-b session not flushed")
	}
}

func TestServiceWidgetMutationsAreAudited(t *testing.T) {
	svc, _, _, auditSvc := newTestService(t)
	ctx := context.Background()

	w, err := svc.AddWidget(ctx, "tenant-a", "user-1", Widget{Title: "W", Kind: WidgetKindValue, Size: WidgetSizeSmall})
	if err != nil {
		t.Fatalf("AddWidget: %v", err)
	}
	if w.CreatedAt.IsZero() {
		t.Error("AddWidget response lost the stored creation time")
	}
	if auditSvc.logged != 1 {
		t.Fatalf("after add: logged = %d, want 1", auditSvc.logged)
	}

	title := "Renamed"
	if err := svc.UpdateWidget(ctx, "tenant-a", "user-1", w.ID, WidgetPatch{Title: &title}); err != nil {
		t.Fatalf("UpdateWidget: %v", err)
	}
	if auditSvc.logged != 2 {
		t.Errorf("after update: logged = %d, want 2", auditSvc.logged)
	}

	if err := svc.RemoveWidget(ctx, "tenant-a", "user-1", w.ID); err != nil {
		t.Fatalf("RemoveWidget: %v", err)
	}
	if auditSvc.logged != 3 {
		t.Errorf("after remove: logged = %d, want 3", auditSvc.logged)
	}
}

func TestServiceSeedsSessionFromMirror(t *testing.T) {
	svc, snap, repo, _ := newTestService(t)
	repo.saved = map[string][]Dashboard{
		"tenant-a/user-1": {{ID: "d1", Name: "Mirrored", IsDefault: true}},
	}
	ctx := context.Background()

	dashboards, err := svc.ListDashboards(ctx, "tenant-a", "user-1")
	if err != nil {
		t.Fatalf("ListDashboards: %v", err)
	}
	if len(dashboards) != 1 || dashboards[0].ID != "d1" {
		t.Fatalf("expected the mirrored dashboard, got %+v", dashboards)
	}

	// The seeded state is persisted locally on the next flush.
	if flushed := svc.FlushDirty(ctx); flushed != 1 {
		t.Errorf("flushed = %d, want 1", flushed)
	}
	if _, ok := snap.snapshots["tenant-a/user-1"]; !ok {
		t.Error("seeded session not written to the local snapshot")
	}
}

func TestServiceLocalSnapshotWinsOverMirror(t *testing.T) {
	svc, snap, repo, _ := newTestService(t)
	snap.snapshots["tenant-a/user-1"] = []Dashboard{{ID: "local", Name: "Local", IsDefault: true}}
	repo.saved = map[string][]Dashboard{
		"tenant-a/user-1": {{ID: "d1", Name: "Mirrored", IsDefault: true}},
	}

	dashboards, err := svc.ListDashboards(context.Background(), "tenant-a", "user-1")
	if err != nil {
		t.Fatalf("ListDashboards: %v", err)
	}
	if len(dashboards) != 1 || dashboards[0].ID != "local" {
		t.Errorf("local snapshot should win over the mirror, got %+v", dashboards)
	}
}

func TestServiceSetTimeRangeValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.SetTimeRange(ctx, "tenant-a", "user-1", common_models.TimeRangeMonth); err != nil {
		t.Fatalf("SetTimeRange: %v", err)
	}
	if err := svc.SetTimeRange(ctx, "tenant-a", "user-1", "last-century"); err == nil {
		t.Error("expected error for unknown time range tag")
	}
}
