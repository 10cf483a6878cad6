package controller

import (
	"strings"

	"amanai-be/internal/dto"
	"amanai-be/internal/pkg/serverutils"
	"amanai-be/internal/service"
	"amanai-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IEncounterController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Active(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Pause(ctx *fiber.Ctx) error
	Resume(ctx *fiber.Ctx) error
	Complete(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	AppendMessage(ctx *fiber.Ctx) error
}

type encounterController struct {
	service   service.IEncounterService
	jwtSecret string
}

func NewEncounterController(service service.IEncounterService, jwtSecret string) IEncounterController {
	return &encounterController{service: service, jwtSecret: jwtSecret}
}

func (c *encounterController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/encounters")
	h.Use(serverutils.IdentityMiddleware(c.jwtSecret))
	h.Post("", c.Start)
	h.Get("", c.List)
	// registered before :id so "active" is not parsed as an id
	h.Get("/active", c.Active)
	h.Get("/:id", c.Show)
	h.Post("/:id/pause", c.Pause)
	h.Post("/:id/resume", c.Resume)
	h.Post("/:id/complete", c.Complete)
	h.Post("/:id/cancel", c.Cancel)
	h.Post("/:id/messages", c.AppendMessage)
}

func (c *encounterController) Start(ctx *fiber.Ctx) error {
	var req dto.StartEncounterRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}

	res, err := c.service.Start(ctx.UserContext(), serverutils.UserID(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success start encounter", res))
}

func (c *encounterController) List(ctx *fiber.Ctx) error {
	req := dto.ListEncountersRequest{
		Statuses: statusFilter(ctx),
		Limit:    ctx.QueryInt("limit", 0),
		Offset:   ctx.QueryInt("offset", 0),
	}

	res, err := c.service.List(ctx.UserContext(), serverutils.UserID(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list encounters", res))
}

func (c *encounterController) Active(ctx *fiber.Ctx) error {
	res, err := c.service.Active(ctx.UserContext(), serverutils.UserID(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get active encounter", res))
}

func (c *encounterController) Show(ctx *fiber.Ctx) error {
	id, err := encounterID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Get(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show encounter", res))
}

func (c *encounterController) Pause(ctx *fiber.Ctx) error {
	id, err := encounterID(ctx)
	if err != nil {
		return err
	}

	var req dto.PauseEncounterRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}

	res, err := c.service.Pause(ctx.UserContext(), serverutils.UserID(ctx), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success pause encounter", res))
}

func (c *encounterController) Resume(ctx *fiber.Ctx) error {
	id, err := encounterID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Resume(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success resume encounter", res))
}

func (c *encounterController) Complete(ctx *fiber.Ctx) error {
	id, err := encounterID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Complete(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success complete encounter", res))
}

func (c *encounterController) Cancel(ctx *fiber.Ctx) error {
	id, err := encounterID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Cancel(ctx.UserContext(), serverutils.UserID(ctx), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success cancel encounter", res))
}

func (c *encounterController) AppendMessage(ctx *fiber.Ctx) error {
	id, err := encounterID(ctx)
	if err != nil {
		return err
	}

	var req dto.AppendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AppendMessage(ctx.UserContext(), serverutils.UserID(ctx), id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success append message", res))
}

func encounterID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		// unparseable ids can never match a row
		return uuid.Nil, apperror.NotFound("Encounter not found")
	}
	return id, nil
}

// statusFilter accepts ?status=a&status=b as well as ?status=a,b.
func statusFilter(ctx *fiber.Ctx) []string {
	var statuses []string
	for _, raw := range ctx.Context().QueryArgs().PeekMulti("status") {
		for _, s := range strings.Split(string(raw), ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, s)
			}
		}
	}
	return statuses
}
