package transfers

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

// InitiateTransfer POST /api/v1/transfers/initiate-transfer
func (h *Handlers) InitiateTransfer(c *fiber.Ctx) error {
	sa := middleware.GetSessionActor(c)
	if sa == nil {
		return response.Error(c, "User not associated with organization", 403, nil)
	}
	var body struct {
		FromAccountID string `json:"from_account_id"`
		ToAccountID   string `json:"to_account_id"`
		AmountCents   int64  `json:"amount_cents"`
		Currency      string `json:"currency"`
	}
	if err := c.BodyParser(&body); err != nil || body.FromAccountID == "" || body.ToAccountID == "" || body.AmountCents == 0 {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	fromID, err := uuid.Parse(body.FromAccountID)
	if err != nil {
		return response.Error(c, "Invalid from_account_id", 400, nil)
	}
	toID, err := uuid.Parse(body.ToAccountID)
	if err != nil {
		return response.Error(c, "Invalid to_account_id", 400, nil)
	}
	if !validation.IsValidCurrency(body.Currency) {
		return response.Error(c, "Invalid currency code", 400, nil)
	}

	result, err := h.Service.Initiate(c.Context(), sa.OrgID,
		movements.Actor{UserID: sa.UserID, Role: sa.Role}, fromID, toID, body.AmountCents, body.Currency)
	if err != nil {
		var ee *movements.ExecutionError
		switch {
		case errors.As(err, &ee):
			return response.Error(c, ee.Error(), 422, fiber.Map{"result": result})
		case errors.Is(err, ErrAccountNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, ErrSameAccount), errors.Is(err, ErrInvalidAmount):
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Transfer initiated", result, nil)
}
