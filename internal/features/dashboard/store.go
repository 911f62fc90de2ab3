package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	common_models "go-insight/internal/common/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the single source of truth for one session's dashboard
// configuration: which dashboards exist, which one is on screen, and what
// widgets it carries. The dashboard list is the only authoritative copy;
// the active-widget view is derived on read, never stored separately.
//
// Every mutation updates memory first and marks the store dirty; the
// snapshot write happens on Save (explicit) or through the background
// flusher. A mutex guards the whole aggregate.
type Store struct {
	mu   sync.RWMutex
	key  string // tenant/user-scoped snapshot key
	snap SnapshotStore
	log  *zap.Logger

	dashboards []Dashboard
	activeID   string
	editMode   bool
	timeRange  common_models.TimeRange
	dirty      bool
}

func NewStore(key string, snap SnapshotStore, log *zap.Logger) *Store {
	s := &Store{
		key:       key,
		snap:      snap,
		log:       log,
		timeRange: common_models.TimeRangeWeek,
	}
	// Never leave the store without an active dashboard, even before
	// LoadInitialState ran.
	s.bootstrapLocked()
	return s
}

// LoadInitialState reads the persisted dashboard list for this store's key.
// Missing or malformed snapshots are not errors: the store falls back to a
// single synthesized default dashboard. Afterwards there is always exactly
// one active dashboard and it is a member of the list.
func (s *Store) LoadInitialState(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dashboards, err := s.snap.Load(ctx, s.key)
	if err != nil && !errors.Is(err, ErrSnapshotNotFound) {
		s.log.Warn("failed to load dashboard snapshot, bootstrapping default",
			zap.String("key", s.key), zap.Error(err))
	}

	if len(dashboards) == 0 {
		s.bootstrapLocked()
		return
	}

	s.adoptLocked(dashboards)
	s.dirty = false
}

// adoptLocked replaces the dashboard list, clears extra default flags (at
// most one dashboard may be flagged default; snapshots written by older
// builds never enforced this), and selects the default or first dashboard.
func (s *Store) adoptLocked(dashboards []Dashboard) {
	defaultSeen := false
	for i := range dashboards {
		if dashboards[i].IsDefault {
			if defaultSeen {
				dashboards[i].IsDefault = false
				continue
			}
			defaultSeen = true
		}
	}

	s.dashboards = dashboards
	s.activeID = dashboards[0].ID
	for _, d := range dashboards {
		if d.IsDefault {
			s.activeID = d.ID
			break
		}
	}
}

// Restore replaces the dashboard list wholesale, e.g. when reseeding a
// session from the remote mirror. The list goes through the same
// normalization as a loaded snapshot and is left unsaved so the next flush
// writes it locally.
func (s *Store) Restore(dashboards []Dashboard) {
	if len(dashboards) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.adoptLocked(cloneDashboards(dashboards))
	s.dirty = true
}

func (s *Store) bootstrapLocked() {
	now := time.Now()
	s.dashboards = []Dashboard{{
		ID:        DefaultDashboardID,
		Name:      DefaultDashboardName,
		Widgets:   []Widget{},
		Layout:    LayoutModeGrid,
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	s.activeID = DefaultDashboardID
	s.dirty = false
}

// Dashboards returns a copy of the dashboard list.
func (s *Store) Dashboards() []Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDashboards(s.dashboards)
}

// ActiveDashboard returns a copy of the currently selected dashboard.
func (s *Store) ActiveDashboard() Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDashboard(s.dashboards[s.activeIndexLocked()])
}

// Widgets returns the active dashboard's widget collection. The slice is
// derived from the dashboard list on every call, so it can never drift
// from it.
func (s *Store) Widgets() []Widget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneWidgets(s.dashboards[s.activeIndexLocked()].Widgets)
}

// SetActiveDashboard switches the on-screen dashboard. Selection is
// memory-only: it does not mark the store dirty and is not persisted.
func (s *Store) SetActiveDashboard(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) < 0 {
		return fmt.Errorf("dashboard '%s' not found", id)
	}
	s.activeID = id
	return nil
}

// AddWidget validates the widget, assigns it a fresh id, and appends it to
// the active dashboard. The stored widget, including its generated id and
// creation time, is returned.
func (s *Store) AddWidget(w Widget) (Widget, error) {
	if err := w.Validate(); err != nil {
		return Widget{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w.ID = uuid.NewString()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}

	idx := s.activeIndexLocked()
	s.dashboards[idx].Widgets = append(s.dashboards[idx].Widgets, w)
	s.dashboards[idx].UpdatedAt = time.Now()
	s.dirty = true
	return w, nil
}

// UpdateWidget shallow-merges the patch over the widget with the given id.
// An unknown id is a silent no-op; an invalid tag or a config document that
// does not decode against the widget's kind is an error, and the widget is
// left untouched.
func (s *Store) UpdateWidget(id string, patch WidgetPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.activeIndexLocked()
	widgets := s.dashboards[idx].Widgets
	for i := range widgets {
		if widgets[i].ID == id {
			updated := widgets[i]
			if err := patch.apply(&updated); err != nil {
				return err
			}
			widgets[i] = updated
			s.dashboards[idx].UpdatedAt = time.Now()
			s.dirty = true
			return nil
		}
	}
	return nil
}

// RemoveWidget filters the widget out of the active dashboard. An unknown
// id is a silent no-op.
func (s *Store) RemoveWidget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.activeIndexLocked()
	widgets := s.dashboards[idx].Widgets
	for i := range widgets {
		if widgets[i].ID == id {
			s.dashboards[idx].Widgets = append(widgets[:i:i], widgets[i+1:]...)
			s.dashboards[idx].UpdatedAt = time.Now()
			s.dirty = true
			return
		}
	}
}

// CreateDashboard appends a new empty dashboard, makes it active, and
// writes the snapshot immediately. The write failure, if any, is returned;
// the in-memory state keeps the new dashboard either way and stays dirty.
func (s *Store) CreateDashboard(ctx context.Context, name, createdBy string) (Dashboard, error) {
	if name == "" {
		return Dashboard{}, errors.New("dashboard name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	d := Dashboard{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedBy: createdBy,
		Widgets:   []Widget{},
		Layout:    LayoutModeGrid,
		IsDefault: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.dashboards = append(s.dashboards, d)
	s.activeID = d.ID
	s.dirty = true

	return cloneDashboard(d), s.saveLocked(ctx)
}

// DeleteDashboard removes a dashboard from the list. The last dashboard
// cannot be deleted; deleting the active one falls back to the first.
func (s *Store) DeleteDashboard(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("dashboard '%s' not found", id)
	}
	if len(s.dashboards) == 1 {
		return errors.New("cannot delete the last dashboard")
	}

	s.dashboards = append(s.dashboards[:idx:idx], s.dashboards[idx+1:]...)
	if s.activeID == id {
		s.activeID = s.dashboards[0].ID
	}
	s.dirty = true
	return s.saveLocked(ctx)
}

// SetDefaultDashboard flags one dashboard default and unsets all others,
// keeping the at-most-one invariant.
func (s *Store) SetDefaultDashboard(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) < 0 {
		return fmt.Errorf("dashboard '%s' not found", id)
	}
	for i := range s.dashboards {
		s.dashboards[i].IsDefault = s.dashboards[i].ID == id
	}
	s.dirty = true
	return nil
}

// Save serializes the whole dashboard list to the snapshot store. Unlike
// the read path, a write failure is surfaced so the caller can notify the
// user; the dirty flag stays set until a write succeeds.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	if err := s.snap.Save(ctx, s.key, s.dashboards); err != nil {
		s.log.Error("failed to save dashboard snapshot",
			zap.String("key", s.key), zap.Error(err))
		return err
	}
	s.dirty = false
	return nil
}

// Dirty reports whether in-memory state has diverged from the snapshot.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Store) EditMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editMode
}

func (s *Store) SetEditMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editMode = on
}

func (s *Store) TimeRange() common_models.TimeRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeRange
}

func (s *Store) SetTimeRange(tr common_models.TimeRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeRange = tr
}

func (s *Store) activeIndexLocked() int {
	if idx := s.indexLocked(s.activeID); idx >= 0 {
		return idx
	}
	// Unreachable after LoadInitialState, but never panic on a bad index.
	return 0
}

func (s *Store) indexLocked(id string) int {
	for i := range s.dashboards {
		if s.dashboards[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneDashboards(in []Dashboard) []Dashboard {
	out := make([]Dashboard, len(in))
	for i := range in {
		out[i] = cloneDashboard(in[i])
	}
	return out
}

func cloneDashboard(d Dashboard) Dashboard {
	d.Widgets = cloneWidgets(d.Widgets)
	return d
}

func cloneWidgets(in []Widget) []Widget {
	out := make([]Widget, len(in))
	copy(out, in)
	return out
}
