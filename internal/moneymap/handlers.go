package moneymap

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"minta-backend/internal/middleware"
	"minta-backend/internal/pkg/response"
)

type Handlers struct {
	Service *Service
}

// CreateNode POST /api/v1/money-map/create-node
func (h *Handlers) CreateNode(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		Name     string  `json:"name"`
		ParentID *string `json:"parent_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.Name == "" {
		return response.Error(c, "Node name is required", 400, nil)
	}
	var parentID *uuid.UUID
	if body.ParentID != nil {
		id, err := uuid.Parse(*body.ParentID)
		if err != nil {
			return response.Error(c, "Invalid parent_id", 400, nil)
		}
		parentID = &id
	}

	node, err := h.Service.CreateNode(c.Context(), sa.OrgID, body.Name, parentID)
	if err != nil {
		if errors.Is(err, ErrParentNotFound) {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Node created", node, nil)
}

// ViewNodes GET /api/v1/money-map/view-nodes
func (h *Handlers) ViewNodes(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	out, err := h.Service.ViewNodes(c.Context(), sa.OrgID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Nodes retrieved", out, nil)
}
