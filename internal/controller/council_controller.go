package controller

import (
	"bufio"
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"news-council-be/internal/dto"
	"news-council-be/internal/pkg/serverutils"
	"news-council-be/internal/service"
	"news-council-be/pkg/events"
)

type ICouncilController interface {
	RegisterRoutes(r fiber.Router)
	Analyze(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Events(ctx *fiber.Ctx) error
	Invoke(ctx *fiber.Ctx) error
}

type councilController struct {
	service service.ICouncilService
}

func NewCouncilController(service service.ICouncilService) ICouncilController {
	return &councilController{service: service}
}

func (c *councilController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/council/v1")
	h.Post("/analyze", c.Analyze)
	h.Get("/tasks/:id", c.Show)
	h.Get("/tasks/:id/events", c.Events)
	h.Post("/invoke", c.Invoke)
}

func (c *councilController) Analyze(ctx *fiber.Ctx) error {
	var req dto.AnalyzeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.StartAnalysis(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Council analysis started", res))
}

func (c *councilController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid task id")
	}

	res, err := c.service.GetRun(ctx.Context(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get council task", res))
}

// Events streams the run's progress events as SSE until the terminal report
// or error event arrives.
func (c *councilController) Events(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid task id")
	}

	// The subscription must outlive this handler; the stream writer below
	// runs after the handler returns. Cancelling the context tears the
	// subscription down once the stream ends.
	subCtx, cancel := context.WithCancel(context.Background())
	msgs, err := c.service.SubscribeEvents(subCtx, id)
	if err != nil {
		cancel()
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for msg := range msgs {
			evt, decodeErr := events.Decode(msg)
			msg.Ack()
			if decodeErr != nil {
				continue
			}

			fmt.Fprintf(w, "data: %s\n\n", evt.ToSSEData())
			if err := w.Flush(); err != nil {
				return // client disconnected
			}

			if evt.Type == events.TypeReport || evt.Type == events.TypeError {
				return
			}
		}
	})

	return nil
}

func (c *councilController) Invoke(ctx *fiber.Ctx) error {
	var req dto.InvokeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Invoke(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Council invocation completed", res))
}
