package dashboard

import (
	"go-insight/internal/common/api"
	"go-insight/internal/config"
	"go-insight/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DashboardApi struct {
	Controller *DashboardController
	Config     *config.Config
}

func NewDashboardApi(controller *DashboardController, cfg *config.Config) api.Route {
	return &DashboardApi{
		Controller: controller,
		Config:     cfg,
	}
}

func (api *DashboardApi) Setup(app *fiber.App) {
	group := app.Group("/api/dashboards", middleware.AuthMiddleware(api.Config.SkipAuth))

	group.Get("/", api.Controller.ListDashboards)
	group.Post("/", api.Controller.CreateDashboard)

	// Static segments before the :id wildcards.
	group.Get("/active", api.Controller.GetActiveDashboard)
	group.Post("/active/select", api.Controller.SelectDashboard)
	group.Post("/active/widgets", api.Controller.AddWidget)
	group.Patch("/active/widgets/:id", api.Controller.UpdateWidget)
	group.Delete("/active/widgets/:id", api.Controller.RemoveWidget)
	group.Put("/session/time-range", api.Controller.SetTimeRange)
	group.Put("/session/edit-mode", api.Controller.SetEditMode)
	group.Post("/save", api.Controller.Save)
	group.Get("/export", api.Controller.Export)

	group.Delete("/:id", api.Controller.DeleteDashboard)
	group.Post("/:id/set-default", api.Controller.SetDefaultDashboard)
	group.Get("/:id/data", api.Controller.GetDashboardData)
}
