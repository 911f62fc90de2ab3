package dashboard

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	DefaultDashboardID   = "default"
	DefaultDashboardName = "Main Dashboard"
)

type WidgetKind string

const (
	WidgetKindChart WidgetKind = "chart"
	WidgetKindValue WidgetKind = "value"
	WidgetKindTable WidgetKind = "table"
	WidgetKindList  WidgetKind = "list"
)

func (k WidgetKind) Valid() bool {
	switch k {
	case WidgetKindChart, WidgetKindValue, WidgetKindTable, WidgetKindList:
		return true
	}
	return false
}

type WidgetSize string

const (
	WidgetSizeSmall  WidgetSize = "small"
	WidgetSizeMedium WidgetSize = "medium"
	WidgetSizeLarge  WidgetSize = "large"
	WidgetSizeFull   WidgetSize = "full"
)

func (s WidgetSize) Valid() bool {
	switch s {
	case WidgetSizeSmall, WidgetSizeMedium, WidgetSizeLarge, WidgetSizeFull:
		return true
	}
	return false
}

// Weight maps a size tag to its grid column span.
func (s WidgetSize) Weight() int {
	switch s {
	case WidgetSizeSmall:
		return 1
	case WidgetSizeMedium:
		return 2
	case WidgetSizeLarge:
		return 3
	case WidgetSizeFull:
		return 4
	}
	return 0
}

type LayoutMode string

const (
	LayoutModeGrid  LayoutMode = "grid"
	LayoutModeFluid LayoutMode = "fluid"
)

// WidgetRect is an explicit layout rectangle in grid units.
type WidgetRect struct {
	X      int `json:"x" bson:"x"`
	Y      int `json:"y" bson:"y"`
	Width  int `json:"width" bson:"width"`
	Height int `json:"height" bson:"height"`
}

// Per-kind widget settings. Unknown kinds keep their raw config so a
// snapshot written by a newer build still round-trips unchanged.
type ChartSettings struct {
	GroupBy string `json:"group_by,omitempty" bson:"group_by,omitempty"`
	Stacked bool   `json:"stacked,omitempty" bson:"stacked,omitempty"`
	Limit   int    `json:"limit,omitempty" bson:"limit,omitempty"`
}

type ValueSettings struct {
	Aggregation string `json:"aggregation,omitempty" bson:"aggregation,omitempty"`
	Format      string `json:"format,omitempty" bson:"format,omitempty"`
	ShowTrend   bool   `json:"show_trend,omitempty" bson:"show_trend,omitempty"`
}

type TableSettings struct {
	Columns []string `json:"columns,omitempty" bson:"columns,omitempty"`
	Limit   int      `json:"limit,omitempty" bson:"limit,omitempty"`
}

type ListSettings struct {
	Source string `json:"source,omitempty" bson:"source,omitempty"`
	Limit  int    `json:"limit,omitempty" bson:"limit,omitempty"`
}

// WidgetConfig is a tagged union keyed by the widget's kind. Exactly one
// variant is populated for recognized kinds; Raw carries the config of a
// kind this build does not know about.
type WidgetConfig struct {
	Chart *ChartSettings  `json:"-" bson:"chart,omitempty"`
	Value *ValueSettings  `json:"-" bson:"value,omitempty"`
	Table *TableSettings  `json:"-" bson:"table,omitempty"`
	List  *ListSettings   `json:"-" bson:"list,omitempty"`
	Raw   json.RawMessage `json:"-" bson:"raw,omitempty"`
}

// Widget is a single tile on a dashboard.
type Widget struct {
	ID        string       `json:"id" bson:"id"`
	Title     string       `json:"title" bson:"title"`
	Kind      WidgetKind   `json:"kind" bson:"kind"`
	Size      WidgetSize   `json:"size" bson:"size"`
	KPIID     string       `json:"kpi_id,omitempty" bson:"kpi_id,omitempty"`
	ChartType string       `json:"chart_type,omitempty" bson:"chart_type,omitempty"`
	Position  *int         `json:"position,omitempty" bson:"position,omitempty"`
	Layout    *WidgetRect  `json:"layout,omitempty" bson:"layout,omitempty"`
	Query     string       `json:"query,omitempty" bson:"query,omitempty"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
	Config    WidgetConfig `json:"config,omitempty" bson:"config"`
}

type widgetAlias Widget

type widgetJSON struct {
	widgetAlias
	Config json.RawMessage `json:"config,omitempty"`
}

func (w Widget) MarshalJSON() ([]byte, error) {
	out := widgetJSON{widgetAlias: widgetAlias(w)}

	var cfg interface{}
	switch {
	case w.Config.Chart != nil:
		cfg = w.Config.Chart
	case w.Config.Value != nil:
		cfg = w.Config.Value
	case w.Config.Table != nil:
		cfg = w.Config.Table
	case w.Config.List != nil:
		cfg = w.Config.List
	case len(w.Config.Raw) > 0:
		out.Config = w.Config.Raw
	}
	if cfg != nil {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return nil, err
		}
		out.Config = raw
	}

	return json.Marshal(out)
}

func (w *Widget) UnmarshalJSON(data []byte) error {
	var in widgetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*w = Widget(in.widgetAlias)
	cfg, err := decodeConfig(w.Kind, in.Config)
	if err != nil {
		return err
	}
	w.Config = cfg
	return nil
}

// decodeConfig resolves a raw config document against a widget kind.
// Unknown kinds keep the raw bytes.
func decodeConfig(kind WidgetKind, raw json.RawMessage) (WidgetConfig, error) {
	var cfg WidgetConfig
	if len(raw) == 0 || string(raw) == "null" {
		return cfg, nil
	}

	switch kind {
	case WidgetKindChart:
		cfg.Chart = &ChartSettings{}
		return cfg, json.Unmarshal(raw, cfg.Chart)
	case WidgetKindValue:
		cfg.Value = &ValueSettings{}
		return cfg, json.Unmarshal(raw, cfg.Value)
	case WidgetKindTable:
		cfg.Table = &TableSettings{}
		return cfg, json.Unmarshal(raw, cfg.Table)
	case WidgetKindList:
		cfg.List = &ListSettings{}
		return cfg, json.Unmarshal(raw, cfg.List)
	default:
		cfg.Raw = append(json.RawMessage(nil), raw...)
		return cfg, nil
	}
}

// Validate rejects widgets with unrecognized tags instead of letting them
// fall through to a default layout downstream.
func (w *Widget) Validate() error {
	if !w.Kind.Valid() {
		return fmt.Errorf("invalid widget kind '%s'", w.Kind)
	}
	if !w.Size.Valid() {
		return fmt.Errorf("invalid widget size '%s'", w.Size)
	}
	return nil
}

// WidgetPatch is a partial widget update. Nil fields are left untouched.
// A config document in the patch body is kept raw and resolved against the
// widget's kind when the patch is applied.
type WidgetPatch struct {
	Title     *string       `json:"title,omitempty"`
	Kind      *WidgetKind   `json:"kind,omitempty"`
	Size      *WidgetSize   `json:"size,omitempty"`
	KPIID     *string       `json:"kpi_id,omitempty"`
	ChartType *string       `json:"chart_type,omitempty"`
	Position  *int          `json:"position,omitempty"`
	Layout    *WidgetRect   `json:"layout,omitempty"`
	Query     *string       `json:"query,omitempty"`
	Config    *WidgetConfig `json:"-"`

	rawConfig json.RawMessage
}

type widgetPatchAlias WidgetPatch

type widgetPatchJSON struct {
	widgetPatchAlias
	Config json.RawMessage `json:"config"`
}

func (p *WidgetPatch) UnmarshalJSON(data []byte) error {
	var in widgetPatchJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*p = WidgetPatch(in.widgetPatchAlias)
	if len(in.Config) > 0 && string(in.Config) != "null" {
		p.rawConfig = append(json.RawMessage(nil), in.Config...)
	}
	return nil
}

func (p *WidgetPatch) Validate() error {
	if p.Kind != nil && !p.Kind.Valid() {
		return fmt.Errorf("invalid widget kind '%s'", *p.Kind)
	}
	if p.Size != nil && !p.Size.Valid() {
		return fmt.Errorf("invalid widget size '%s'", *p.Size)
	}
	return nil
}

// apply shallow-merges the patch over the widget. The config variant is
// resolved against the widget's kind after the kind patch, so changing the
// kind never leaves a stale variant behind.
func (p *WidgetPatch) apply(w *Widget) error {
	kindChanged := p.Kind != nil && *p.Kind != w.Kind
	if p.Title != nil {
		w.Title = *p.Title
	}
	if p.Kind != nil {
		w.Kind = *p.Kind
	}
	if p.Size != nil {
		w.Size = *p.Size
	}
	if p.KPIID != nil {
		w.KPIID = *p.KPIID
	}
	if p.ChartType != nil {
		w.ChartType = *p.ChartType
	}
	if p.Position != nil {
		w.Position = p.Position
	}
	if p.Layout != nil {
		w.Layout = p.Layout
	}
	if p.Query != nil {
		w.Query = *p.Query
	}

	switch {
	case p.rawConfig != nil:
		cfg, err := decodeConfig(w.Kind, p.rawConfig)
		if err != nil {
			return err
		}
		w.Config = cfg
	case p.Config != nil:
		w.Config = *p.Config
	case kindChanged:
		w.Config = WidgetConfig{}
	}
	return nil
}

// Dashboard is a named, ordered collection of widgets.
type Dashboard struct {
	ID        string     `json:"id" bson:"_id"`
	Name      string     `json:"name" bson:"name"`
	CreatedBy string     `json:"created_by,omitempty" bson:"created_by,omitempty"`
	Widgets   []Widget   `json:"widgets" bson:"widgets"`
	Layout    LayoutMode `json:"layout" bson:"layout"`
	IsDefault bool       `json:"is_default" bson:"is_default"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}
