package kpi

import (
	"go-insight/internal/common/api"
	"go-insight/internal/config"
	"go-insight/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type KPIApi struct {
	Controller *KPIController
	Config     *config.Config
}

func NewKPIApi(controller *KPIController, cfg *config.Config) api.Route {
	return &KPIApi{
		Controller: controller,
		Config:     cfg,
	}
}

func (api *KPIApi) Setup(app *fiber.App) {
	group := app.Group("/api/kpis", middleware.AuthMiddleware(api.Config.SkipAuth))

	group.Post("/", api.Controller.CreateDefinition)
	group.Get("/", api.Controller.ListDefinitions)
	group.Get("/:id", api.Controller.GetDefinition)
	group.Put("/:id", api.Controller.UpdateDefinition)
	group.Delete("/:id", api.Controller.DeleteDefinition)

	group.Post("/:id/evaluate", api.Controller.Evaluate)
}
