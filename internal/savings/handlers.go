package savings

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"minta-backend/internal/middleware"
	"minta-backend/internal/movements"
	"minta-backend/internal/pkg/response"
	"minta-backend/internal/pkg/validation"
)

type Handlers struct {
	Service *Service
}

// CreateGoal POST /api/v1/savings/create-goal
func (h *Handlers) CreateGoal(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		Name        string  `json:"name"`
		TargetCents int64   `json:"target_cents"`
		Currency    string  `json:"currency"`
		ParentNode  *string `json:"parent_node_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.Name == "" || body.TargetCents == 0 || body.Currency == "" {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if !validation.IsValidCurrency(body.Currency) {
		return response.Error(c, "Invalid currency code", 400, nil)
	}
	var parent *uuid.UUID
	if body.ParentNode != nil {
		id, err := uuid.Parse(*body.ParentNode)
		if err != nil {
			return response.Error(c, "Invalid parent_node_id", 400, nil)
		}
		parent = &id
	}

	goal, err := h.Service.CreateGoal(c.Context(), sa.OrgID, movements.Actor{UserID: sa.UserID, Role: sa.Role}, CreateGoalInput{
		Name:        body.Name,
		TargetCents: body.TargetCents,
		Currency:    body.Currency,
		ParentNode:  parent,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTarget) {
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Goal created", goal, nil)
}

// Contribute POST /api/v1/savings/contribute
func (h *Handlers) Contribute(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		GoalID        string  `json:"goal_id"`
		FromAccountID *string `json:"from_account_id"`
		AmountCents   int64   `json:"amount_cents"`
		Currency      string  `json:"currency"`
	}
	if err := c.BodyParser(&body); err != nil || body.GoalID == "" || body.AmountCents == 0 || body.Currency == "" {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	goalID, err := uuid.Parse(body.GoalID)
	if err != nil {
		return response.Error(c, "Invalid goal_id", 400, nil)
	}
	var fromAccount *uuid.UUID
	if body.FromAccountID != nil {
		id, err := uuid.Parse(*body.FromAccountID)
		if err != nil {
			return response.Error(c, "Invalid from_account_id", 400, nil)
		}
		fromAccount = &id
	}
	if body.AmountCents <= 0 {
		return response.Error(c, "Amount must be a positive number", 400, nil)
	}

	result, err := h.Service.Contribute(c.Context(), sa.OrgID, goalID,
		movements.Actor{UserID: sa.UserID, Role: sa.Role}, fromAccount, body.AmountCents, body.Currency)
	if err != nil {
		var ee *movements.ExecutionError
		switch {
		case errors.As(err, &ee):
			return response.Error(c, ee.Error(), 422, fiber.Map{"result": result})
		case errors.Is(err, ErrGoalNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, ErrInvalidAmount):
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Contribution recorded", result, nil)
}

// ViewGoals GET /api/v1/savings/view-goals
func (h *Handlers) ViewGoals(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	out, err := h.Service.ViewGoals(c.Context(), sa.OrgID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Goals retrieved", out, nil)
}
