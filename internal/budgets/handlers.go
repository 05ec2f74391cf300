package budgets

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"minta-backend/internal/middleware"
	"minta-backend/internal/movements"
	"minta-backend/internal/pkg/response"
)

type Handlers struct {
	Service *Service
}

// CreateBudget POST /api/v1/budgets/create-budget
func (h *Handlers) CreateBudget(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		Name       string  `json:"name"`
		PeriodKey  string  `json:"period_key"`
		LimitCents int64   `json:"limit_cents"`
		Currency   string  `json:"currency"`
		ParentNode *string `json:"parent_node_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.Name == "" || body.PeriodKey == "" || body.LimitCents == 0 {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	var parent *uuid.UUID
	if body.ParentNode != nil {
		id, err := uuid.Parse(*body.ParentNode)
		if err != nil {
			return response.Error(c, "Invalid parent_node_id", 400, nil)
		}
		parent = &id
	}

	budget, err := h.Service.CreateBudget(c.Context(), sa.OrgID, movements.Actor{UserID: sa.UserID, Role: sa.Role}, CreateBudgetInput{
		Name:       body.Name,
		PeriodKey:  body.PeriodKey,
		LimitCents: body.LimitCents,
		Currency:   body.Currency,
		ParentNode: parent,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidPeriodKey) || errors.Is(err, ErrInvalidLimit) {
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Budget created", budget, nil)
}

// RecordSpend POST /api/v1/budgets/record-spend
func (h *Handlers) RecordSpend(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		BudgetID      string `json:"budget_id"`
		FromAccountID string `json:"from_account_id"`
		AmountCents   int64  `json:"amount_cents"`
		Currency      string `json:"currency"`
	}
	if err := c.BodyParser(&body); err != nil || body.BudgetID == "" || body.FromAccountID == "" || body.AmountCents == 0 {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	budgetID, err := uuid.Parse(body.BudgetID)
	if err != nil {
		return response.Error(c, "Invalid budget_id", 400, nil)
	}
	fromAccountID, err := uuid.Parse(body.FromAccountID)
	if err != nil {
		return response.Error(c, "Invalid from_account_id", 400, nil)
	}

	result, err := h.Service.RecordSpend(c.Context(), sa.OrgID, budgetID,
		movements.Actor{UserID: sa.UserID, Role: sa.Role}, fromAccountID, body.AmountCents, body.Currency)
	if err != nil {
		var ee *movements.ExecutionError
		switch {
		case errors.As(err, &ee):
			return response.Error(c, ee.Error(), 422, fiber.Map{"result": result})
		case errors.Is(err, ErrBudgetNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, ErrInvalidAmount):
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Spend recorded", result, nil)
}

// ViewBudgets GET /api/v1/budgets/view-budgets?period=2026-08
func (h *Handlers) ViewBudgets(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	out, err := h.Service.ViewBudgets(c.Context(), sa.OrgID, c.Query("period"))
	if err != nil {
		if errors.Is(err, ErrInvalidPeriodKey) {
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Budgets retrieved", out, nil)
}
