package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	common_models "go-insight/internal/common/models"
	"go-insight/internal/features/audit"
	"go-insight/internal/features/kpi"
	"go-insight/internal/features/system"

	"go.uber.org/zap"
)

type DashboardService interface {
	ListDashboards(ctx context.Context, tenantID, userID string) ([]Dashboard, error)
	ActiveDashboard(ctx context.Context, tenantID, userID string) (Dashboard, error)
	SelectDashboard(ctx context.Context, tenantID, userID, dashboardID string) (Dashboard, error)
	CreateDashboard(ctx context.Context, tenantID, userID, name string) (Dashboard, error)
	DeleteDashboard(ctx context.Context, tenantID, userID, dashboardID string) error
	SetDefaultDashboard(ctx context.Context, tenantID, userID, dashboardID string) error
	AddWidget(ctx context.Context, tenantID, userID string, w Widget) (Widget, error)
	UpdateWidget(ctx context.Context, tenantID, userID, widgetID string, patch WidgetPatch) error
	RemoveWidget(ctx context.Context, tenantID, userID, widgetID string) error
	SetTimeRange(ctx context.Context, tenantID, userID string, tr common_models.TimeRange) error
	SetEditMode(ctx context.Context, tenantID, userID string, on bool)
	Save(ctx context.Context, tenantID, userID string) error
	GetDashboardData(ctx context.Context, tenantID, userID, dashboardID string) (map[string]interface{}, error)
	ExportDashboards(ctx context.Context, tenantID, userID string) ([]byte, string, error)
	FlushDirty(ctx context.Context) int
}

type DashboardServiceImpl struct {
	Snap         SnapshotStore
	Repo         DashboardRepository
	KPIService   kpi.KPIService
	AuditService audit.AuditService
	Hub          *system.Hub
	Log          *zap.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

func NewDashboardService(
	snap SnapshotStore,
	repo DashboardRepository,
	kpiService kpi.KPIService,
	auditService audit.AuditService,
	hub *system.Hub,
	log *zap.Logger,
) DashboardService {
	return &DashboardServiceImpl{
		Snap:         snap,
		Repo:         repo,
		KPIService:   kpiService,
		AuditService: auditService,
		Hub:          hub,
		Log:          log,
		stores:       make(map[string]*Store),
	}
}

// snapshotKey scopes a session's persisted state to its tenant and user,
// so sessions can never overwrite each other's configuration.
func snapshotKey(tenantID, userID string) string {
	return tenantID + "/" + userID
}

// session returns the configuration store for one (tenant, user) pair,
// loading its initial state on first access.
func (s *DashboardServiceImpl) session(ctx context.Context, tenantID, userID string) *Store {
	key := snapshotKey(tenantID, userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.stores[key]; ok {
		return store
	}

	store := NewStore(key, s.Snap, s.Log)
	store.LoadInitialState(ctx)
	s.seedFromMirror(ctx, tenantID, userID, key, store)
	s.stores[key] = store
	return store
}

// seedFromMirror falls back to the remote copy when no local snapshot
// exists yet, so a session landing on a fresh host keeps its dashboards.
func (s *DashboardServiceImpl) seedFromMirror(ctx context.Context, tenantID, userID, key string, store *Store) {
	if _, err := s.Snap.Load(ctx, key); !errors.Is(err, ErrSnapshotNotFound) {
		return
	}

	mirrored, err := s.Repo.FindByOwner(ctx, tenantID, userID)
	if err != nil {
		s.Log.Warn("failed to read dashboard mirror",
			zap.String("tenant", tenantID), zap.String("user", userID), zap.Error(err))
		return
	}
	if len(mirrored) > 0 {
		store.Restore(mirrored)
	}
}

func (s *DashboardServiceImpl) ListDashboards(ctx context.Context, tenantID, userID string) ([]Dashboard, error) {
	return s.session(ctx, tenantID, userID).Dashboards(), nil
}

func (s *DashboardServiceImpl) ActiveDashboard(ctx context.Context, tenantID, userID string) (Dashboard, error) {
	return s.session(ctx, tenantID, userID).ActiveDashboard(), nil
}

func (s *DashboardServiceImpl) SelectDashboard(ctx context.Context, tenantID, userID, dashboardID string) (Dashboard, error) {
	store := s.session(ctx, tenantID, userID)
	if err := store.SetActiveDashboard(dashboardID); err != nil {
		return Dashboard{}, err
	}
	return store.ActiveDashboard(), nil
}

func (s *DashboardServiceImpl) CreateDashboard(ctx context.Context, tenantID, userID, name string) (Dashboard, error) {
	store := s.session(ctx, tenantID, userID)

	d, err := store.CreateDashboard(ctx, name, userID)
	if err != nil {
		return d, err
	}

	s.afterSave(ctx, tenantID, userID, store)
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDashboard, "dashboards", d.ID, map[string]common_models.Change{
		"dashboard": {New: d},
	})
	return d, nil
}

func (s *DashboardServiceImpl) DeleteDashboard(ctx context.Context, tenantID, userID, dashboardID string) error {
	store := s.session(ctx, tenantID, userID)

	if err := store.DeleteDashboard(ctx, dashboardID); err != nil {
		return err
	}

	s.afterSave(ctx, tenantID, userID, store)
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "dashboards", dashboardID, nil)
	return nil
}

func (s *DashboardServiceImpl) SetDefaultDashboard(ctx context.Context, tenantID, userID, dashboardID string) error {
	store := s.session(ctx, tenantID, userID)

	if err := store.SetDefaultDashboard(dashboardID); err != nil {
		return err
	}

	s.broadcast(tenantID, system.EventDashboardChanged, map[string]interface{}{"dashboard_id": dashboardID, "op": "set-default"})
	return nil
}

func (s *DashboardServiceImpl) AddWidget(ctx context.Context, tenantID, userID string, w Widget) (Widget, error) {
	store := s.session(ctx, tenantID, userID)

	stored, err := store.AddWidget(w)
	if err != nil {
		return Widget{}, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionWidget, "dashboards", stored.ID, map[string]common_models.Change{
		"widget": {New: stored},
	})
	s.broadcast(tenantID, system.EventDashboardChanged, map[string]interface{}{"widget_id": stored.ID, "op": "add"})
	return stored, nil
}

func (s *DashboardServiceImpl) UpdateWidget(ctx context.Context, tenantID, userID, widgetID string, patch WidgetPatch) error {
	store := s.session(ctx, tenantID, userID)

	if err := store.UpdateWidget(widgetID, patch); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionWidget, "dashboards", widgetID, map[string]common_models.Change{
		"widget": {New: patch},
	})
	s.broadcast(tenantID, system.EventDashboardChanged, map[string]interface{}{"widget_id": widgetID, "op": "update"})
	return nil
}

func (s *DashboardServiceImpl) RemoveWidget(ctx context.Context, tenantID, userID, widgetID string) error {
	store := s.session(ctx, tenantID, userID)

	store.RemoveWidget(widgetID)
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "dashboards", widgetID, nil)
	s.broadcast(tenantID, system.EventDashboardChanged, map[string]interface{}{"widget_id": widgetID, "op": "remove"})
	return nil
}

func (s *DashboardServiceImpl) SetTimeRange(ctx context.Context, tenantID, userID string, tr common_models.TimeRange) error {
	switch tr {
	case common_models.TimeRangeToday, common_models.TimeRangeWeek, common_models.TimeRangeMonth, common_models.TimeRangeQtr:
	default:
		return fmt.Errorf("invalid time range '%s'", tr)
	}
	s.session(ctx, tenantID, userID).SetTimeRange(tr)
	return nil
}

func (s *DashboardServiceImpl) SetEditMode(ctx context.Context, tenantID, userID string, on bool) {
	s.session(ctx, tenantID, userID).SetEditMode(on)
}

// Save writes the session's snapshot and mirrors it to MongoDB. The local
// write failure is surfaced; the mirror is best-effort.
func (s *DashboardServiceImpl) Save(ctx context.Context, tenantID, userID string) error {
	store := s.session(ctx, tenantID, userID)

	if err := store.Save(ctx); err != nil {
		s.broadcast(tenantID, system.EventSnapshotFailed, map[string]interface{}{"error": err.Error()})
		return err
	}

	s.afterSave(ctx, tenantID, userID, store)
	return nil
}

// afterSave mirrors a freshly written snapshot to the remote store and
// notifies listeners.
func (s *DashboardServiceImpl) afterSave(ctx context.Context, tenantID, userID string, store *Store) {
	if err := s.Repo.SaveAll(ctx, tenantID, userID, store.Dashboards()); err != nil {
		s.Log.Warn("failed to mirror dashboards to remote store",
			zap.String("tenant", tenantID), zap.String("user", userID), zap.Error(err))
	}
	s.broadcast(tenantID, system.EventSnapshotSaved, nil)
}

// GetDashboardData resolves the data behind every widget of a dashboard.
// A failing widget contributes an error entry instead of failing the whole
// dashboard.
func (s *DashboardServiceImpl) GetDashboardData(ctx context.Context, tenantID, userID, dashboardID string) (map[string]interface{}, error) {
	store := s.session(ctx, tenantID, userID)

	var target *Dashboard
	for _, d := range store.Dashboards() {
		if d.ID == dashboardID {
			dd := d
			target = &dd
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("dashboard '%s' not found", dashboardID)
	}

	widgetData := make(map[string]interface{})
	for _, widget := range target.Widgets {
		data, err := s.getWidgetData(ctx, widget)
		if err != nil {
			widgetData[widget.ID] = map[string]interface{}{
				"error": err.Error(),
			}
			continue
		}
		widgetData[widget.ID] = data
	}

	return widgetData, nil
}

func (s *DashboardServiceImpl) getWidgetData(ctx context.Context, widget Widget) (interface{}, error) {
	switch widget.Kind {
	case WidgetKindValue:
		if widget.KPIID == "" {
			return nil, fmt.Errorf("widget '%s' has no KPI reference", widget.Title)
		}
		return s.KPIService.Evaluate(ctx, widget.KPIID, nil)
	case WidgetKindChart:
		if widget.KPIID == "" {
			return nil, fmt.Errorf("widget '%s' has no KPI reference", widget.Title)
		}
		result, err := s.KPIService.Evaluate(ctx, widget.KPIID, nil)
		if err != nil {
			return nil, err
		}
		chartType := widget.ChartType
		if chartType == "" {
			chartType = "bar"
		}
		return map[string]interface{}{
			"type": chartType,
			"data": result,
		}, nil
	case WidgetKindTable:
		settings := widget.Config.Table
		if settings == nil {
			settings = &TableSettings{}
		}
		return settings, nil
	case WidgetKindList:
		settings := widget.Config.List
		if settings == nil {
			settings = &ListSettings{}
		}
		return settings, nil
	default:
		return nil, fmt.Errorf("unsupported widget kind: %s", widget.Kind)
	}
}

// FlushDirty writes every session whose in-memory state has diverged from
// its snapshot. Called by the background scheduler.
func (s *DashboardServiceImpl) FlushDirty(ctx context.Context) int {
	s.mu.Lock()
	stores := make(map[string]*Store, len(s.stores))
	for key, store := range s.stores {
		stores[key] = store
	}
	s.mu.Unlock()

	flushed := 0
	for key, store := range stores {
		if !store.Dirty() {
			continue
		}
		if err := store.Save(ctx); err != nil {
			// Divergence stays visible: the dirty flag is still set and
			// the session's tenant is told the background save failed.
			tenant, _, _ := strings.Cut(key, "/")
			s.broadcast(tenant, system.EventSnapshotFailed, map[string]interface{}{"key": key, "error": err.Error()})
			continue
		}
		flushed++
	}
	return flushed
}

func (s *DashboardServiceImpl) broadcast(tenantID, eventType string, payload map[string]interface{}) {
	s.Hub.Broadcast(system.Event{
		Type:     eventType,
		TenantID: tenantID,
		Payload:  payload,
	})
}

