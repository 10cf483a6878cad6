package controller

import (
	"amanai-be/internal/dto"
	"amanai-be/internal/pkg/serverutils"
	"amanai-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionContextController interface {
	RegisterRoutes(r fiber.Router)
	Save(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type sessionContextController struct {
	service   service.ISessionContextService
	jwtSecret string
}

func NewSessionContextController(service service.ISessionContextService, jwtSecret string) ISessionContextController {
	return &sessionContextController{service: service, jwtSecret: jwtSecret}
}

func (c *sessionContextController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session-context")
	h.Use(serverutils.IdentityMiddleware(c.jwtSecret))
	h.Put("", c.Save)
	h.Get("", c.Get)
	h.Delete("", c.Delete)
}

func (c *sessionContextController) Save(ctx *fiber.Ctx) error {
	var req dto.SaveSessionContextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.service.Save(ctx.UserContext(), serverutils.SessionKey(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success save session context", res))
}

func (c *sessionContextController) Get(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.UserContext(), serverutils.SessionKey(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session context", res))
}

func (c *sessionContextController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.Delete(ctx.UserContext(), serverutils.SessionKey(ctx)); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session context", nil))
}
