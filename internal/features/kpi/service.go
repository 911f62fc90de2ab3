package kpi

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	common_models "go-insight/internal/common/models"
	"go-insight/internal/features/audit"
	"go-insight/pkg/utils"

	"github.com/d5/tengo/v2"
)

type KPIService interface {
	CreateDefinition(ctx context.Context, def *Definition, tenantID string) error
	GetDefinition(ctx context.Context, id string) (*Definition, error)
	ListDefinitions(ctx context.Context, tenantID string) ([]Definition, error)
	UpdateDefinition(ctx context.Context, id string, def *Definition) error
	DeleteDefinition(ctx context.Context, id string) error
	Evaluate(ctx context.Context, id string, inputs map[string]float64) (*Result, error)
}

type KPIServiceImpl struct {
	Repo         KPIRepository
	AuditService audit.AuditService
}

func NewKPIService(repo KPIRepository, auditService audit.AuditService) KPIService {
	return &KPIServiceImpl{
		Repo:         repo,
		AuditService: auditService,
	}
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (s *KPIServiceImpl) CreateDefinition(ctx context.Context, def *Definition, tenantID string) error {
	def.TenantID = tenantID
	if def.Key == "" {
		def.Key = strings.ReplaceAll(utils.Slugify(def.Name), "-", "_")
	}

	if err := validateDefinition(def); err != nil {
		return err
	}

	err := s.Repo.Create(ctx, def)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionKPI, "kpi_definitions", def.ID.Hex(), map[string]common_models.Change{
			"definition": {New: def},
		})
	}
	return err
}

func (s *KPIServiceImpl) GetDefinition(ctx context.Context, id string) (*Definition, error) {
	return s.Repo.Get(ctx, id)
}

func (s *KPIServiceImpl) ListDefinitions(ctx context.Context, tenantID string) ([]Definition, error) {
	return s.Repo.FindByTenant(ctx, tenantID)
}

func (s *KPIServiceImpl) UpdateDefinition(ctx context.Context, id string, def *Definition) error {
	existing, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := validateDefinition(def); err != nil {
		return err
	}

	err = s.Repo.Update(ctx, id, def)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionKPI, "kpi_definitions", id, map[string]common_models.Change{
			"definition": {Old: existing, New: def},
		})
	}
	return err
}

func (s *KPIServiceImpl) DeleteDefinition(ctx context.Context, id string) error {
	existing, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.Repo.Delete(ctx, id)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "kpi_definitions", id, map[string]common_models.Change{
			"definition": {Old: existing},
		})
	}
	return err
}

// Evaluate runs the definition's expression over the given inputs. When no
// inputs are supplied, the definition's sample inputs are used — the portal
// renders from sample data until a metrics feed is connected.
func (s *KPIServiceImpl) Evaluate(ctx context.Context, id string, inputs map[string]float64) (*Result, error) {
	def, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return EvaluateDefinition(def, inputs)
}

// EvaluateDefinition compiles and runs a KPI expression as a script with
// each input bound as a variable.
func EvaluateDefinition(def *Definition, inputs map[string]float64) (*Result, error) {
	if inputs == nil {
		inputs = def.SampleInputs
	}

	script := tengo.NewScript([]byte("__result__ := " + def.Expression))
	for name, value := range inputs {
		if !identifierPattern.MatchString(name) {
			return nil, fmt.Errorf("invalid input name '%s'", name)
		}
		if err := script.Add(name, value); err != nil {
			return nil, fmt.Errorf("failed to bind input '%s': %w", name, err)
		}
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}

	if err := compiled.Run(); err != nil {
		return nil, fmt.Errorf("failed to evaluate expression: %w", err)
	}

	value := compiled.Get("__result__").Float()

	onTarget := value >= def.Target
	if def.Direction == "down" {
		onTarget = value <= def.Target
	}

	return &Result{
		Key:       def.Key,
		Value:     value,
		Unit:      def.Unit,
		Target:    def.Target,
		OnTarget:  onTarget,
		Evaluated: time.Now(),
	}, nil
}

func validateDefinition(def *Definition) error {
	if def.Name == "" {
		return fmt.Errorf("kpi name is required")
	}
	if def.Key == "" {
		return fmt.Errorf("kpi key is required")
	}
	if def.Expression == "" {
		return fmt.Errorf("kpi expression is required")
	}
	if def.Direction != "" && def.Direction != "up" && def.Direction != "down" {
		return fmt.Errorf("invalid kpi direction '%s'", def.Direction)
	}

	// Reject expressions that do not even compile against their sample
	// inputs, so broken KPIs never reach a dashboard.
	if _, err := EvaluateDefinition(&Definition{
		Key:          def.Key,
		Expression:   def.Expression,
		SampleInputs: def.SampleInputs,
	}, nil); err != nil {
		return err
	}
	return nil
}
