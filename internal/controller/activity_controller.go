package controller

import (
	"time"

	"collab-platform-be/internal/dto"
	"collab-platform-be/internal/pkg/logger"
	"collab-platform-be/internal/pkg/serverutils"
	"collab-platform-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IActivityController interface {
	ListByWorkspace(ctx *fiber.Ctx) error
	RegisterRoutes(r fiber.Router)
}

type activityController struct {
	activityService service.IActivityService
	logger          logger.ILogger
}

func NewActivityController(activityService service.IActivityService, log logger.ILogger) IActivityController {
	return &activityController{activityService: activityService, logger: log}
}

func (c *activityController) RegisterRoutes(r fiber.Router) {
	r.Get("/workspaces/v1/:workspaceId/activities", c.ListByWorkspace)
}

// ListByWorkspace pages through a workspace's persisted activity history,
// newest first, optionally bounded to a time window.
func (c *activityController) ListByWorkspace(ctx *fiber.Ctx) error {
	if _, err := requestUserId(ctx); err != nil {
		return err
	}

	workspaceId := ctx.Params("workspaceId")
	if workspaceId == "" {
		return serverutils.NewAppError(fiber.StatusBadRequest, "Workspace id is required")
	}

	page := ctx.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := ctx.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	since, err := parseTimeQuery(ctx, "since")
	if err != nil {
		return err
	}
	until, err := parseTimeQuery(ctx, "until")
	if err != nil {
		return err
	}

	items, total, err := c.activityService.ListByWorkspace(ctx.Context(), &dto.ListActivitiesRequest{
		WorkspaceId: workspaceId,
		EventType:   ctx.Query("event_type"),
		Since:       since,
		Until:       until,
		Limit:       limit,
		Offset:      (page - 1) * limit,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.PaginatedResponse("Workspace activities", items, serverutils.Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
	}))
}

func parseTimeQuery(ctx *fiber.Ctx, name string) (*time.Time, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, serverutils.NewAppError(fiber.StatusBadRequest, name+" must be an RFC3339 timestamp")
	}
	return &t, nil
}
