package dashboard

import (
	common_models "go-insight/internal/common/models"
	"go-insight/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct {
	Service DashboardService
}

func NewDashboardController(service DashboardService) *DashboardController {
	return &DashboardController{Service: service}
}

func sessionFromClaims(ctx *fiber.Ctx) (tenantID, userID string, ok bool) {
	claims, found := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !found || claims.TenantID == "" {
		return "", "", false
	}
	return claims.TenantID, claims.UserID, true
}

// ListDashboards godoc
// @Summary List dashboards
// @Description List all dashboards of the current session
// @Tags dashboard
// @Produce json
// @Success 200 {array} Dashboard
// @Router /api/dashboards [get]
func (ctrl *DashboardController) ListDashboards(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	dashboards, err := ctrl.Service.ListDashboards(ctx.UserContext(), tenantID, userID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(dashboards)
}

// CreateDashboard godoc
// @Summary Create dashboard
// @Description Create a new empty dashboard and make it active
// @Tags dashboard
// @Accept json
// @Produce json
// @Param dashboard body object true "Dashboard name"
// @Success 201 {object} Dashboard
// @Router /api/dashboards [post]
func (ctrl *DashboardController) CreateDashboard(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	d, err := ctrl.Service.CreateDashboard(ctx.UserContext(), tenantID, userID, body.Name)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(d)
}

// GetActiveDashboard godoc
// @Summary Get active dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} Dashboard
// @Router /api/dashboards/active [get]
func (ctrl *DashboardController) GetActiveDashboard(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	d, err := ctrl.Service.ActiveDashboard(ctx.UserContext(), tenantID, userID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(d)
}

// SelectDashboard godoc
// @Summary Select active dashboard
// @Description Switch the on-screen dashboard. Selection is not persisted.
// @Tags dashboard
// @Accept json
// @Produce json
// @Param selection body object true "Dashboard id"
// @Success 200 {object} Dashboard
// @Router /api/dashboards/active/select [post]
func (ctrl *DashboardController) SelectDashboard(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	d, err := ctrl.Service.SelectDashboard(ctx.UserContext(), tenantID, userID, body.ID)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(d)
}

// DeleteDashboard godoc
// @Summary Delete dashboard
// @Tags dashboard
// @Param id path string true "Dashboard ID"
// @Success 204
// @Router /api/dashboards/{id} [delete]
func (ctrl *DashboardController) DeleteDashboard(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	if err := ctrl.Service.DeleteDashboard(ctx.UserContext(), tenantID, userID, ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// SetDefaultDashboard godoc
// @Summary Set default dashboard
// @Description Flag one dashboard as the session default
// @Tags dashboard
// @Param id path string true "Dashboard ID"
// @Success 204
// @Router /api/dashboards/{id}/set-default [post]
func (ctrl *DashboardController) SetDefaultDashboard(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	if err := ctrl.Service.SetDefaultDashboard(ctx.UserContext(), tenantID, userID, ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// AddWidget godoc
// @Summary Add widget
// @Description Add a widget to the active dashboard, returning the generated id
// @Tags dashboard
// @Accept json
// @Produce json
// @Param widget body Widget true "Widget"
// @Success 201 {object} Widget
// @Router /api/dashboards/active/widgets [post]
func (ctrl *DashboardController) AddWidget(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var widget Widget
	if err := ctx.BodyParser(&widget); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	created, err := ctrl.Service.AddWidget(ctx.UserContext(), tenantID, userID, widget)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(created)
}

// UpdateWidget godoc
// @Summary Update widget
// @Description Partially update a widget on the active dashboard
// @Tags dashboard
// @Accept json
// @Param id path string true "Widget ID"
// @Param patch body WidgetPatch true "Widget patch"
// @Success 204
// @Router /api/dashboards/active/widgets/{id} [patch]
func (ctrl *DashboardController) UpdateWidget(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var patch WidgetPatch
	if err := ctx.BodyParser(&patch); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := ctrl.Service.UpdateWidget(ctx.UserContext(), tenantID, userID, ctx.Params("id"), patch); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// RemoveWidget godoc
// @Summary Remove widget
// @Tags dashboard
// @Param id path string true "Widget ID"
// @Success 204
// @Router /api/dashboards/active/widgets/{id} [delete]
func (ctrl *DashboardController) RemoveWidget(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	if err := ctrl.Service.RemoveWidget(ctx.UserContext(), tenantID, userID, ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// SetTimeRange godoc
// @Summary Set session time range
// @Tags dashboard
// @Accept json
// @Param range body object true "Time range tag"
// @Success 204
// @Router /api/dashboards/session/time-range [put]
func (ctrl *DashboardController) SetTimeRange(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		TimeRange string `json:"time_range"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := ctrl.Service.SetTimeRange(ctx.UserContext(), tenantID, userID, common_models.TimeRange(body.TimeRange)); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// SetEditMode godoc
// @Summary Toggle edit mode
// @Tags dashboard
// @Accept json
// @Param mode body object true "Edit mode flag"
// @Success 204
// @Router /api/dashboards/session/edit-mode [put]
func (ctrl *DashboardController) SetEditMode(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		EditMode bool `json:"edit_mode"`
	}
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctrl.Service.SetEditMode(ctx.UserContext(), tenantID, userID, body.EditMode)
	return ctx.SendStatus(fiber.StatusNoContent)
}

// Save godoc
// @Summary Save dashboards
// @Description Persist the session's dashboard configuration
// @Tags dashboard
// @Success 204
// @Router /api/dashboards/save [post]
func (ctrl *DashboardController) Save(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	if err := ctrl.Service.Save(ctx.UserContext(), tenantID, userID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// GetDashboardData godoc
// @Summary Get dashboard data
// @Description Resolve the data behind every widget of a dashboard
// @Tags dashboard
// @Produce json
// @Param id path string true "Dashboard ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/dashboards/{id}/data [get]
func (ctrl *DashboardController) GetDashboardData(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	data, err := ctrl.Service.GetDashboardData(ctx.UserContext(), tenantID, userID, ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(data)
}

// Export godoc
// @Summary Export dashboards
// @Description Download the session's dashboard configuration as an Excel workbook
// @Tags dashboard
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /api/dashboards/export [get]
func (ctrl *DashboardController) Export(ctx *fiber.Ctx) error {
	tenantID, userID, ok := sessionFromClaims(ctx)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	data, filename, err := ctrl.Service.ExportDashboards(ctx.UserContext(), tenantID, userID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Set("Content-Disposition", "attachment; filename="+filename)
	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return ctx.Send(data)
}
