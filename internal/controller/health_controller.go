package controller

import (
	"github.com/gofiber/fiber/v2"
)

const (
	ServiceName    = "aman-ai-backend"
	ServiceVersion = "0.1.0"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Root(ctx *fiber.Ctx) error
}

type healthController struct{}

func NewHealthController() IHealthController {
	return &healthController{}
}

// RegisterRoutes mounts on the app root, outside /api.
func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
	r.Get("/", c.Root)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"status":  "healthy",
		"version": ServiceVersion,
		"service": ServiceName,
	})
}

func (c *healthController) Root(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"message": "Welcome to Aman AI Platform API",
		"docs":    "/docs",
		"version": ServiceVersion,
	})
}
