package controller

import (
	"amanai-be/internal/dto"
	"amanai-be/internal/pkg/serverutils"
	"amanai-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Post("/chat", c.Chat)
}

// Chat does not require an identity; the session context is looked up by
// X-Session-Id, then by user id when one is sent.
func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Chat(ctx.UserContext(), chatSessionKey(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success chat", res))
}

func chatSessionKey(ctx *fiber.Ctx) string {
	if key := ctx.Get(serverutils.HeaderSessionID); key != "" {
		return key
	}
	return ctx.Get(serverutils.HeaderUserID)
}
