package controller

import (
	"io"

	"amanai-be/internal/pkg/serverutils"
	"amanai-be/internal/service"
	"amanai-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type IBloodController interface {
	RegisterRoutes(r fiber.Router)
	Extract(ctx *fiber.Ctx) error
	Markers(ctx *fiber.Ctx) error
}

type bloodController struct {
	service service.IBloodService
}

func NewBloodController(service service.IBloodService) IBloodController {
	return &bloodController{service: service}
}

func (c *bloodController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/blood")
	h.Post("/extract", c.Extract)
	h.Get("/markers", c.Markers)
}

func (c *bloodController) Extract(ctx *fiber.Ctx) error {
	file, err := ctx.FormFile("file")
	if err != nil {
		return apperror.Validation("File is required")
	}

	f, err := file.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	res, err := c.service.Extract(ctx.UserContext(), file.Filename, file.Header.Get(fiber.HeaderContentType), data)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success extract markers", res))
}

func (c *bloodController) Markers(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get markers", c.service.Markers()))
}
