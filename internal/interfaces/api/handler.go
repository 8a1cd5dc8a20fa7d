package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/lite-lake/dnssync/internal/application/orchestrator"
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/service"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

// Syncer is the slice of the orchestrator the API triggers.
type Syncer interface {
	RunAll(ctx context.Context) (*orchestrator.Summary, error)
	RunTarget(ctx context.Context, id string) (*orchestrator.TargetResult, error)
	Plan(ctx context.Context) ([]orchestrator.TargetPlan, error)
}

type Handler struct {
	syncer    Syncer
	providers *service.ProviderService
}

func NewHandler(syncer Syncer, providers *service.ProviderService) *Handler {
	return &Handler{syncer: syncer, providers: providers}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Post("/sync", h.HandleSyncAll)
	router.Post("/sync/:id", h.HandleSyncTarget)
	router.Get("/plan", h.HandlePlan)

	providers := router.Group("/providers")
	providers.Get("/", h.HandleListProviders)
	providers.Post("/", h.HandleAddProvider)
	providers.Get("/:id", h.HandleGetProvider)
	providers.Put("/:id", h.HandleUpdateProvider)
	providers.Delete("/:id", h.HandleDeleteProvider)

	router.Get("/options", h.HandleGetOptions)
	router.Put("/options", h.HandleSetOptions)
	router.Get("/history", h.HandleHistory)
	router.Delete("/history", h.HandleClearHistory)
}

// HandleSyncAll runs every target once and returns the run summary. Target
// failures are part of a 200 response; only configuration errors fail it.
func (h *Handler) HandleSyncAll(c *fiber.Ctx) error {
	summary, err := h.syncer.RunAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (h *Handler) HandleSyncTarget(c *fiber.Ctx) error {
	res, err := h.syncer.RunTarget(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *Handler) HandlePlan(c *fiber.Ctx) error {
	plans, err := h.syncer.Plan(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"plans": plans})
}

func (h *Handler) HandleListProviders(c *fiber.Ctx) error {
	providers, err := h.providers.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"providers": providers})
}

func (h *Handler) HandleGetProvider(c *fiber.Ctx) error {
	p, err := h.providers.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *Handler) HandleAddProvider(c *fiber.Ctx) error {
	var p entity.ProviderConfig
	if err := c.BodyParser(&p); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid provider body: "+err.Error())
	}
	created, err := h.providers.Add(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) HandleUpdateProvider(c *fiber.Ctx) error {
	var p entity.ProviderConfig
	if err := c.BodyParser(&p); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid provider body: "+err.Error())
	}
	p.ID = c.Params("id")
	updated, err := h.providers.Update(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *Handler) HandleDeleteProvider(c *fiber.Ctx) error {
	if err := h.providers.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) HandleGetOptions(c *fiber.Ctx) error {
	opts, err := h.providers.SyncOptions(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(opts)
}

func (h *Handler) HandleSetOptions(c *fiber.Ctx) error {
	var opts valueobject.SyncOptions
	if err := c.BodyParser(&opts); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid options body: "+err.Error())
	}
	if err := h.providers.SetSyncOptions(c.UserContext(), opts); err != nil {
		return err
	}
	return c.JSON(opts)
}

// HandleHistory returns entries newest first; ?target= narrows to one target.
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	history, err := h.providers.History(c.UserContext())
	if err != nil {
		return err
	}
	if target := c.Query("target"); target != "" {
		filtered := entity.History{}
		for _, e := range history {
			if e.TargetProviderID == target {
				filtered = append(filtered, e)
			}
		}
		history = filtered
	}
	if history == nil {
		history = entity.History{}
	}
	return c.JSON(fiber.Map{"history": history})
}

func (h *Handler) HandleClearHistory(c *fiber.Ctx) error {
	if err := h.providers.ClearHistory(c.UserContext()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// statusFor maps domain errors onto HTTP codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrProviderMissing):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateID), errors.Is(err, domain.ErrDuplicateName):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrConfiguration),
		errors.Is(err, domain.ErrRequired),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidDomain),
		errors.Is(err, domain.ErrInvalidType),
		errors.Is(err, domain.ErrMissingSecret),
		errors.Is(err, domain.ErrSelfSync):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		logger.FromContext(c.UserContext()).Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
