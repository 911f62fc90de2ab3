package kpi

import (
	"go-insight/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type KPIController struct {
	Service KPIService
}

func NewKPIController(service KPIService) *KPIController {
	return &KPIController{Service: service}
}

func tenantFromClaims(ctx *fiber.Ctx) (string, bool) {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok || claims.TenantID == "" {
		return "", false
	}
	return claims.TenantID, true
}

// CreateDefinition godoc
// @Summary Create KPI definition
// @Description Create a new KPI definition for the current tenant
// @Tags kpi
// @Accept json
// @Produce json
// @Param definition body Definition true "KPI definition"
// @Success 201 {object} Definition
// @Router /api/kpis [post]
func (ctrl *KPIController) CreateDefinition(ctx *fiber.Ctx) error {
	var def Definition
	if err := ctx.BodyParser(&def); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tenantID, ok := tenantFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	if err := ctrl.Service.CreateDefinition(ctx.UserContext(), &def, tenantID); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(def)
}

// ListDefinitions godoc
// @Summary List KPI definitions
// @Tags kpi
// @Produce json
// @Success 200 {array} Definition
// @Router /api/kpis [get]
func (ctrl *KPIController) ListDefinitions(ctx *fiber.Ctx) error {
	tenantID, ok := tenantFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	defs, err := ctrl.Service.ListDefinitions(ctx.UserContext(), tenantID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(defs)
}

// GetDefinition godoc
// @Summary Get KPI definition
// @Tags kpi
// @Produce json
// @Param id path string true "KPI ID"
// @Success 200 {object} Definition
// @Router /api/kpis/{id} [get]
func (ctrl *KPIController) GetDefinition(ctx *fiber.Ctx) error {
	def, err := ctrl.Service.GetDefinition(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(def)
}

// UpdateDefinition godoc
// @Summary Update KPI definition
// @Tags kpi
// @Accept json
// @Produce json
// @Param id path string true "KPI ID"
// @Param definition body Definition true "KPI definition"
// @Success 200 {object} Definition
// @Router /api/kpis/{id} [put]
func (ctrl *KPIController) UpdateDefinition(ctx *fiber.Ctx) error {
	var def Definition
	if err := ctx.BodyParser(&def); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := ctrl.Service.UpdateDefinition(ctx.UserContext(), ctx.Params("id"), &def); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(def)
}

// DeleteDefinition godoc
// @Summary Delete KPI definition
// @Tags kpi
// @Param id path string true "KPI ID"
// @Success 204
// @Router /api/kpis/{id} [delete]
func (ctrl *KPIController) DeleteDefinition(ctx *fiber.Ctx) error {
	if err := ctrl.Service.DeleteDefinition(ctx.UserContext(), ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// Evaluate godoc
// @Summary Evaluate KPI
// @Description Evaluate a KPI expression over supplied metric inputs
// @Tags kpi
// @Accept json
// @Produce json
// @Param id path string true "KPI ID"
// @Param inputs body map[string]float64 false "Metric inputs"
// @Success 200 {object} Result
// @Router /api/kpis/{id}/evaluate [post]
func (ctrl *KPIController) Evaluate(ctx *fiber.Ctx) error {
	var inputs map[string]float64
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&inputs); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	result, err := ctrl.Service.Evaluate(ctx.UserContext(), ctx.Params("id"), inputs)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(result)
}
