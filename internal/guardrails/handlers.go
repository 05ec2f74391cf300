package guardrails

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

// ViewGuardrails GET /api/v1/guardrails/view-guardrails
func (h *Handlers) ViewGuardrails(c *fiber.Ctx) error {
	actor := middleware.GetSessionActor(c)
	if actor == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	out, err := h.Service.List(c.Context(), actor.OrgID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Guardrails retrieved", out, nil)
}

// UpdateGuardrail PATCH /api/v1/guardrails/update-guardrail/:guardrail_id
func (h *Handlers) UpdateGuardrail(c *fiber.Ctx) error {
	actor := middleware.GetSessionActor(c)
	if actor == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	guardrailID, err := uuid.Parse(c.Params("guardrail_id"))
	if err != nil {
		return response.Error(c, "Invalid guardrail_id", 400, nil)
	}

	var body struct {
		ApprovalPolicy         *string  `json:"approval_policy"`
		AutoApproveUpToCents   *int64   `json:"auto_approve_up_to_cents"`
		ClearAutoApproveLimit  bool     `json:"clear_auto_approve_limit"`
		DailyLimitCents        *int64   `json:"daily_limit_cents"`
		WeeklyLimitCents       *int64   `json:"weekly_limit_cents"`
		AllowedInstrumentKinds []string `json:"allowed_instrument_kinds"`
		BlockedSymbols         []string `json:"blocked_symbols"`
		MaxOrderAmountCents    *int64   `json:"max_order_amount_cents"`
		RequireApprovalForSell *bool    `json:"require_approval_for_sell"`
		AllowedRolesToInitiate []string `json:"allowed_roles_to_initiate"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	g, err := h.Service.Update(c.Context(), actor.OrgID, guardrailID, actor.UserID, UpdateInput{
		ApprovalPolicy:         body.ApprovalPolicy,
		AutoApproveUpToCents:   body.AutoApproveUpToCents,
		ClearAutoApproveLimit:  body.ClearAutoApproveLimit,
		DailyLimitCents:        body.DailyLimitCents,
		WeeklyLimitCents:       body.WeeklyLimitCents,
		AllowedInstrumentKinds: body.AllowedInstrumentKinds,
		BlockedSymbols:         body.BlockedSymbols,
		MaxOrderAmountCents:    body.MaxOrderAmountCents,
		RequireApprovalForSell: body.RequireApprovalForSell,
		AllowedRolesToInitiate: body.AllowedRolesToInitiate,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrGuardrailNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, ErrInvalidPolicy), errors.Is(err, ErrInvalidIntent):
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Guardrail updated", g, nil)
}
