package controller

import (
	"io"

	"amanai-be/internal/pkg/serverutils"
	"amanai-be/internal/service"
	"amanai-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type ISpeechController interface {
	RegisterRoutes(r fiber.Router)
	SpeechToText(ctx *fiber.Ctx) error
}

type speechController struct {
	service service.ISpeechService
}

func NewSpeechController(service service.ISpeechService) ISpeechController {
	return &speechController{service: service}
}

func (c *speechController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/speech")
	h.Post("/stt", c.SpeechToText)
}

func (c *speechController) SpeechToText(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("audio")
	if err != nil {
		return apperror.Validation("Audio file is required")
	}

	f, err := file.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	audio, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	res, err := c.service.SpeechToText(ctx.UserContext(), audio, ctx.FormValue("lang"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success speech to text", res))
}
