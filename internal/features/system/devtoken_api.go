package system

import (
	"go-insight/internal/common/api"
	"go-insight/internal/config"
	"go-insight/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// DevTokenApi issues signed JWTs for local development. The route is only
// mounted when the environment is "development".
type DevTokenApi struct {
	Config *config.Config
}

func NewDevTokenApi(cfg *config.Config) api.Route {
	return &DevTokenApi{Config: cfg}
}

func (h *DevTokenApi) Setup(app *fiber.App) {
	if h.Config.Environment != "development" {
		return
	}
	app.Post("/api/auth/dev-token", h.issueToken)
}

// issueToken godoc
// @Summary Issue a development token
// @Description Signs a JWT for the given user and tenant. Development only.
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/auth/dev-token [post]
func (h *DevTokenApi) issueToken(c *fiber.Ctx) error {
	var body struct {
		UserID   string   `json:"user_id"`
		TenantID string   `json:"tenant_id"`
		Roles    []string `json:"roles"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if body.UserID == "" || body.TenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and tenant_id are required",
		})
	}
	if len(body.Roles) == 0 {
		body.Roles = []string{"agent"}
	}

	token, err := utils.GenerateToken(body.UserID, body.TenantID, body.Roles)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"token": token})
}
