package journal

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"minta-backend/internal/middleware"
	"minta-backend/internal/pkg/response"
)

type Handlers struct {
	Service *Service
}

// ViewTimeline GET /api/v1/journal/view-timeline?limit=100
func (h *Handlers) ViewTimeline(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	out, err := h.Service.Timeline(c.Context(), sa.OrgID, c.QueryInt("limit"))
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Timeline retrieved", out, nil)
}

// ViewEntityTimeline GET /api/v1/journal/view-entity-timeline/:entity_id
func (h *Handlers) ViewEntityTimeline(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	entityID, err := uuid.Parse(c.Params("entity_id"))
	if err != nil {
		return response.Error(c, "Invalid entity_id", 400, nil)
	}
	out, err := h.Service.EntityTimeline(c.Context(), sa.OrgID, entityID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Entity timeline retrieved", out, nil)
}
