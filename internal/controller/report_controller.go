package controller

import (
	"fmt"

	"amanai-be/internal/dto"
	"amanai-be/internal/pkg/serverutils"
	"amanai-be/internal/service"
	"amanai-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IReportController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Verify(ctx *fiber.Ctx) error
	PDF(ctx *fiber.Ctx) error
	Share(ctx *fiber.Ctx) error
}

type reportController struct {
	service   service.IReportService
	jwtSecret string
}

func NewReportController(service service.IReportService, jwtSecret string) IReportController {
	return &reportController{service: service, jwtSecret: jwtSecret}
}

func (c *reportController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/reports")
	// verification is public: it backs the QR code printed on the pdf
	h.Get("/:id", c.Verify)

	identity := serverutils.IdentityMiddleware(c.jwtSecret)
	h.Post("", identity, c.Create)
	h.Get("/:id/pdf", identity, c.PDF)
	h.Post("/:id/share", identity, c.Share)
}

func (c *reportController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), serverutils.UserID(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create report", res))
}

func (c *reportController) Verify(ctx *fiber.Ctx) error {
	id, err := reportID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Verify(ctx.UserContext(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success verify report", res))
}

func (c *reportController) PDF(ctx *fiber.Ctx) error {
	id, err := reportID(ctx)
	if err != nil {
		return err
	}

	pdf, err := c.service.PDF(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="report-%s.pdf"`, id))
	return ctx.Send(pdf)
}

func (c *reportController) Share(ctx *fiber.Ctx) error {
	id, err := reportID(ctx)
	if err != nil {
		return err
	}

	var req dto.ShareReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.Share(ctx.UserContext(), serverutils.UserID(ctx), id, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success share report", nil))
}

func reportID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.NotFound("Report not found")
	}
	return id, nil
}
