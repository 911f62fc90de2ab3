package main

import (
	"context"
	"fmt"
	common_api "go-insight/internal/common/api"
	"go-insight/internal/config"
	"go-insight/internal/database"
	"go-insight/internal/features/audit"
	"go-insight/internal/features/dashboard"
	"go-insight/internal/features/kpi"
	"go-insight/internal/features/system"
	"go-insight/internal/logger"
	"go-insight/internal/middleware"
	"go-insight/pkg/utils"
	"log"

	_ "go-insight/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// NewDashboardFlusher binds the background flusher to the configured schedule.
func NewDashboardFlusher(service dashboard.DashboardService, cfg *config.Config, logger *zap.Logger) *dashboard.Flusher {
	return dashboard.NewFlusher(service, cfg.FlushSchedule, logger)
}

// StartFlusher runs the snapshot flusher for the app's lifetime.
func StartFlusher(lc fx.Lifecycle, flusher *dashboard.Flusher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return flusher.Start()
		},
		OnStop: func(ctx context.Context) error {
			flusher.Stop()
			return nil
		},
	})
}

// @title           Insight Dashboard API
// @version         1.0
// @description     Dashboard configuration service for the call-center analytics portal.

// @host            localhost:8000
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,

			database.NewDatabase,
			database.NewSnapshotDB,

			dashboard.NewSQLiteSnapshotStore,
			dashboard.NewDashboardRepository,
			audit.NewAuditRepository,
			kpi.NewKPIRepository,

			system.NewHub,
			audit.NewAuditService,
			kpi.NewKPIService,
			dashboard.NewDashboardService,
			NewDashboardFlusher,

			audit.NewAuditController,
			kpi.NewKPIController,
			dashboard.NewDashboardController,
			system.NewWebSocketController,

			AsRoute(audit.NewAuditApi),
			AsRoute(kpi.NewKPIApi),
			AsRoute(dashboard.NewDashboardApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(system.NewWebSocketApi),
			AsRoute(system.NewDevTokenApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			RegisterAllRoutesWithAnnotation,
			StartServer,
			StartFlusher,
		),
	)

	app.Run()
}
