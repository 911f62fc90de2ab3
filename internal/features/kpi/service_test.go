package kpi

import (
	"context"
	"fmt"
	"math"
	"testing"
)

// mockKPIRepository serves definitions from a map.
type mockKPIRepository struct {
	defs map[string]*Definition
}

func (m *mockKPIRepository) Create(ctx context.Context, def *Definition) error { return nil }

func (m *mockKPIRepository) Get(ctx context.Context, id string) (*Definition, error) {
	def, ok := m.defs[id]
	if !ok {
		return nil, fmt.Errorf("kpi '%s' not found", id)
	}
	return def, nil
}

func (m *mockKPIRepository) FindByTenant(ctx context.Context, tenantID string) ([]Definition, error) {
	return nil, nil
}

func (m *mockKPIRepository) Update(ctx context.Context, id string, def *Definition) error {
	return nil
}

func (m *mockKPIRepository) Delete(ctx context.Context, id string) error { return nil }

func TestEvaluateDefinition(t *testing.T) {
	tests := []struct {
		name   string
		def    Definition
		inputs map[string]float64
		want   float64
	}{
		{
			name:   "simple ratio",
			def:    Definition{Key: "answer_rate", Expression: "answered / offered * 100"},
			inputs: map[string]float64{"answered": 90, "offered": 100},
			want:   90,
		},
		{
			name:   "weighted average",
			def:    Definition{Key: "aht", Expression: "(talk + hold + wrap) / calls"},
			inputs: map[string]float64{"talk": 300, "hold": 30, "wrap": 60, "calls": 3},
			want:   130,
		},
		{
			name:   "constant expression",
			def:    Definition{Key: "flat", Expression: "42"},
			inputs: map[string]float64{},
			want:   42,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EvaluateDefinition(&tt.def, tt.inputs)
			if err != nil {
				t.Fatalf("EvaluateDefinition: %v", err)
			}
			if math.Abs(result.Value-tt.want) > 1e-9 {
				t.Errorf("value = %v, want %v", result.Value, tt.want)
			}
			if result.Key != tt.def.Key {
				t.Errorf("key = %s, want %s", result.Key, tt.def.Key)
			}
		})
	}
}

func TestEvaluateDefinitionUsesSampleInputs(t *testing.T) {
	def := Definition{
		Key:          "service_level",
		Expression:   "answered_in_sla / offered * 100",
		SampleInputs: map[string]float64{"answered_in_sla": 80, "offered": 100},
	}

	result, err := EvaluateDefinition(&def, nil)
	if err != nil {
		t.Fatalf("EvaluateDefinition: %v", err)
	}
	if result.Value != 80 {
		t.Errorf("value = %v, want 80 from sample inputs", result.Value)
	}
}

func TestEvaluateDefinitionOnTarget(t *testing.T) {
	tests := []struct {
		name      string
		direction string
		target    float64
		value     string
		want      bool
	}{
		{"up direction above target", "up", 80, "90", true},
		{"up direction below target", "up", 80, "70", false},
		{"down direction below target", "down", 300, "250", true},
		{"down direction above target", "down", 300, "350", false},
		{"default direction is up", "", 50, "50", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := Definition{Key: "k", Expression: tt.value, Target: tt.target, Direction: tt.direction}
			result, err := EvaluateDefinition(&def, nil)
			if err != nil {
				t.Fatalf("EvaluateDefinition: %v", err)
			}
			if result.OnTarget != tt.want {
				t.Errorf("OnTarget = %v, want %v", result.OnTarget, tt.want)
			}
		})
	}
}

func TestEvaluateDefinitionErrors(t *testing.T) {
	tests := []struct {
		name   string
		def    Definition
		inputs map[string]float64
	}{
		{
			name: "syntax error",
			def:  Definition{Key: "k", Expression: "answered /"},
		},
		{
			name: "undefined variable",
			def:  Definition{Key: "k", Expression: "missing * 2"},
		},
		{
			name:   "invalid input name",
			def:    Definition{Key: "k", Expression: "1"},
			inputs: map[string]float64{"bad-name": 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EvaluateDefinition(&tt.def, tt.inputs); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidateDefinition(t *testing.T) {
	valid := Definition{
		Name:         "Answer Rate",
		Key:          "answer_rate",
		Expression:   "answered / offered * 100",
		Direction:    "up",
		SampleInputs: map[string]float64{"answered": 90, "offered": 100},
	}

	tests := []struct {
		name    string
		mutate  func(d *Definition)
		wantErr bool
	}{
		{"valid", func(d *Definition) {}, false},
		{"missing name", func(d *Definition) { d.Name = "" }, true},
		{"missing key", func(d *Definition) { d.Key = "" }, true},
		{"missing expression", func(d *Definition) { d.Expression = "" }, true},
		{"bad direction", func(d *Definition) { d.Direction = "sideways" }, true},
		{"expression does not compile", func(d *Definition) { d.Expression = "answered +*" }, true},
		{"expression references unknown input", func(d *Definition) { d.Expression = "abandoned / offered" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := valid
			def.SampleInputs = map[string]float64{"answered": 90, "offered": 100}
			tt.mutate(&def)
			err := validateDefinition(&def)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateDefinition() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServiceEvaluateLoadsDefinition(t *testing.T) {
	repo := &mockKPIRepository{defs: map[string]*Definition{
		"kpi-1": {
			Key:          "occupancy",
			Expression:   "talk_time / staffed_time * 100",
			Target:       85,
			Direction:    "up",
			SampleInputs: map[string]float64{"talk_time": 340, "staffed_time": 400},
		},
	}}
	service := &KPIServiceImpl{Repo: repo}

	result, err := service.Evaluate(context.Background(), "kpi-1", nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Value != 85 {
		t.Errorf("value = %v, want 85", result.Value)
	}
	if !result.OnTarget {
		t.Error("85 should be on an 85 target")
	}

	if _, err := service.Evaluate(context.Background(), "missing", nil); err == nil {
		t.Error("expected error for unknown kpi")
	}
}
