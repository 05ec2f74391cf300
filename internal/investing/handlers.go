package investing

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

// SubmitOrder POST /api/v1/investing/submit-order
func (h *Handlers) SubmitOrder(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		AccountID      string `json:"account_id"`
		Symbol         string `json:"symbol"`
		Side           string `json:"side"`
		InstrumentKind string `json:"instrument_kind"`
		NotionalCents  int64  `json:"notional_cents"`
		Currency       string `json:"currency"`
	}
	if err := c.BodyParser(&body); err != nil || body.AccountID == "" || body.Symbol == "" || body.NotionalCents == 0 {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	accountID, err := uuid.Parse(body.AccountID)
	if err != nil {
		return response.Error(c, "Invalid account_id", 400, nil)
	}

	result, err := h.Service.SubmitOrder(c.Context(), sa.OrgID, movements.Actor{UserID: sa.UserID, Role: sa.Role}, OrderInput{
		AccountID:      accountID,
		Symbol:         body.Symbol,
		Side:           body.Side,
		InstrumentKind: body.InstrumentKind,
		NotionalCents:  body.NotionalCents,
		Currency:       body.Currency,
	})
	if err != nil {
		var ee *movements.ExecutionError
		var be *OrderBlockedError
		switch {
		case errors.As(err, &ee):
			return response.Error(c, ee.Error(), 422, fiber.Map{"result": result})
		case errors.As(err, &be):
			return response.Error(c, be.Error(), 422, fiber.Map{"reason_code": be.ReasonCode})
		case errors.Is(err, ErrAccountNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, ErrNotBrokerage), errors.Is(err, ErrInvalidSymbol),
			errors.Is(err, ErrInvalidSide), errors.Is(err, ErrInvalidAmount),
			errors.Is(err, ErrInvalidInstrument):
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Order submitted", result, nil)
}

// ViewPositions GET /api/v1/investing/view-positions/:account_id
func (h *Handlers) ViewPositions(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	accountID, err := uuid.Parse(c.Params("account_id"))
	if err != nil {
		return response.Error(c, "Invalid account_id", 400, nil)
	}
	out, err := h.Service.ViewPositions(c.Context(), sa.OrgID, accountID)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Positions retrieved", out, nil)
}
