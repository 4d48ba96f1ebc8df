package controller

import (
	"errors"

	"collab-platform-be/internal/dto"
	"collab-platform-be/internal/pkg/logger"
	"collab-platform-be/internal/pkg/serverutils"
	"collab-platform-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IJobController interface {
	Submit(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Retry(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	RegisterRoutes(r fiber.Router)
}

type jobController struct {
	jobService service.IJobService
	logger     logger.ILogger
}

func NewJobController(jobService service.IJobService, log logger.ILogger) IJobController {
	return &jobController{jobService: jobService, logger: log}
}

func (c *jobController) RegisterRoutes(r fiber.Router) {
	jobs := r.Group("/jobs/v1")
	jobs.Post("/", c.Submit)
	jobs.Get("/", c.List)
	jobs.Get("/:jobId", c.Status)
	jobs.Post("/:jobId/retry", c.Retry)
}

func (c *jobController) Submit(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.SubmitJobRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	resp, err := c.jobService.Submit(ctx.Context(), userId, &req)
	if err != nil {
		return mapJobError(err)
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Job submitted", resp))
}

func (c *jobController) Status(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}
	jobId := ctx.Params("jobId")
	if jobId == "" {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Job id is required")
	}

	resp, err := c.jobService.Status(ctx.Context(), jobId)
	if err != nil {
		return mapJobError(err)
	}
	if resp.UserId != userId {
		return serverutils.NewAppError(fiber.StatusForbidden, "Job belongs to another user")
	}

	return ctx.JSON(serverutils.SuccessResponse("Job status", resp))
}

func (c *jobController) Retry(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}
	jobId := ctx.Params("jobId")
	if jobId == "" {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Job id is required")
	}

	// Ownership check runs against the stored record before resubmission.
	status, err := c.jobService.Status(ctx.Context(), jobId)
	if err != nil {
		return mapJobError(err)
	}
	if status.UserId != userId {
		return serverutils.NewAppError(fiber.StatusForbidden, "Job belongs to another user")
	}

	resp, err := c.jobService.Retry(ctx.Context(), jobId)
	if err != nil {
		return mapJobError(err)
	}

	c.logger.Info("JobController", "Job retried", map[string]interface{}{
		"original_job_id": jobId,
		"job_id":          resp.JobId,
		"user_id":         userId,
	})

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Job resubmitted", resp))
}

func (c *jobController) List(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}

	page := ctx.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := ctx.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	items, total, err := c.jobService.ListByUser(ctx.Context(), &dto.ListJobsRequest{
		UserId: userId,
		Status: ctx.Query("status"),
		Type:   ctx.Query("type"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return mapJobError(err)
	}

	return ctx.JSON(serverutils.PaginatedResponse("Jobs", items, serverutils.Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
	}))
}

func mapJobError(err error) error {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		return serverutils.NewAppError(fiber.StatusNotFound, "Job not found")
	case errors.Is(err, service.ErrJobNotRetriable):
		return serverutils.NewAppError(fiber.StatusConflict, "Only failed jobs can be retried")
	case errors.Is(err, service.ErrUnknownJobType):
		return serverutils.NewAppError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrQueueUnavailable):
		return serverutils.NewAppError(fiber.StatusServiceUnavailable, "Job queue unavailable, try again later")
	default:
		return err
	}
}

// requestUserId reads the authenticated user set by the JWT middleware.
func requestUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := ctx.Locals("user_id").(string)
	if !ok || raw == "" {
		return uuid.Nil, serverutils.NewAppError(fiber.StatusUnauthorized, "Missing authentication")
	}
	userId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, serverutils.NewAppError(fiber.StatusUnauthorized, "Invalid user identity")
	}
	return userId, nil
}
